package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fanfare-live/fanfare/internal/domain"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{"min_length", "Tunes", nil},
		{"max_length", strings.Repeat("a", 20), nil},
		{"too_short", "Solo", domain.ErrNameTooShort},
		{"empty", "", domain.ErrNameTooShort},
		{"too_long", strings.Repeat("a", 21), domain.ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateName(tt.value)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDescriptionAndBio(t *testing.T) {
	ok := "exactly 10"
	assert.NoError(t, domain.ValidateDescription(ok))
	assert.NoError(t, domain.ValidateBio(ok))

	assert.ErrorIs(t, domain.ValidateDescription("too short"), domain.ErrDescriptionTooShort)
	assert.ErrorIs(t, domain.ValidateBio("too short"), domain.ErrBioTooShort)
}

func TestValidateFees(t *testing.T) {
	for _, fees := range []uint8{0, 5, 10} {
		assert.NoError(t, domain.ValidateFees(fees))
	}
	for _, fees := range []uint8{1, 3, 7, 11, 100} {
		assert.ErrorIs(t, domain.ValidateFees(fees), domain.ErrWrongFeesOption)
	}
}
