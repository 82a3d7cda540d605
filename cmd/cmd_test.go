package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFindingID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{arg: "42", want: 42},
		{arg: "#42", want: 42},
		{arg: " 7 ", want: 7},
		{arg: "0", wantErr: true},
		{arg: "-3", wantErr: true},
		{arg: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseFindingID(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRenderArgs(t *testing.T) {
	assert.NoError(t, validateRenderArgs(&RenderOptions{}, []string{"42"}))
	assert.NoError(t, validateRenderArgs(&RenderOptions{SARIF: "report.sarif"}, nil))
	assert.Error(t, validateRenderArgs(&RenderOptions{SARIF: "report.sarif"}, []string{"42"}))
	assert.Error(t, validateRenderArgs(&RenderOptions{}, nil))
	assert.Error(t, validateRenderArgs(&RenderOptions{SARIF: "report.sarif", Index: -1}, nil))
}

func TestChoiceOptions(t *testing.T) {
	opts, err := choiceOptions("")
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = choiceOptions("VIEW")
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	_, err = choiceOptions("later")
	assert.Error(t, err)
}
