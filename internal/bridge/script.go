package bridge

import (
	"encoding/json"
	"fmt"
)

// DefaultQueryFunction is the global the host binds to deliver payloads to Channel.Query.
const DefaultQueryFunction = "triageQuery"

// ClickInterceptor returns the document-level click handler. Action links are
// forwarded verbatim; anchors opening in a new context are forwarded as
// open-external messages; every other click keeps its default behavior.
func ClickInterceptor(queryFunction string) string {
	if queryFunction == "" {
		queryFunction = DefaultQueryFunction
	}
	prefixes, _ := json.Marshal([]string{PrefixReject, PrefixRejectForever})
	fn, _ := json.Marshal(queryFunction)
	external, _ := json.Marshal(PrefixOpenExternal)

	return fmt.Sprintf(`(function () {
  var actionPrefixes = %s;
  var queryFunction = %s;
  function send(payload) {
    var query = window[queryFunction];
    if (typeof query === "function") {
      query(payload);
    }
  }
  document.addEventListener("click", function (event) {
    var anchor = event.target && event.target.closest ? event.target.closest("a") : null;
    if (!anchor) {
      return;
    }
    var href = anchor.getAttribute("href") || "";
    for (var i = 0; i < actionPrefixes.length; i++) {
      if (href.indexOf(actionPrefixes[i]) === 0) {
        event.preventDefault();
        send(href);
        return;
      }
    }
    if (anchor.getAttribute("target") === "_blank") {
      event.preventDefault();
      send(%s + anchor.href);
    }
  }, true);
})();`, prefixes, fn, external)
}
