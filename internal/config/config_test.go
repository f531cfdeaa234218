package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validModel() *Model {
	return &Model{
		API:        APIConfig{BaseURL: "https://cms.example.com", Token: "secret"},
		Conversion: ConversionConfig{BlockAPIKey: "quote_block"},
	}
}

func TestModel_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validModel().Validate())
}

func TestModel_Validate_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*Model)
		wantErr string
	}{
		{
			name:    "missing base url",
			mutate:  func(m *Model) { m.API.BaseURL = "" },
			wantErr: "base_url",
		},
		{
			name:    "missing token",
			mutate:  func(m *Model) { m.API.Token = "" },
			wantErr: "token",
		},
		{
			name:    "no block selector",
			mutate:  func(m *Model) { m.Conversion.BlockAPIKey = "" },
			wantErr: "block_id or block_api_key",
		},
		{
			name:    "both block selectors",
			mutate:  func(m *Model) { m.Conversion.BlockID = "123" },
			wantErr: "only one",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := validModel()
			tc.mutate(m)
			err := m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
