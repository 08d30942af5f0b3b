package domain

const (
	// NameMinLen and NameMaxLen bound campaign and artist names.
	NameMinLen = 5
	NameMaxLen = 20

	// DescriptionMinLen bounds campaign descriptions and artist bios.
	DescriptionMinLen = 10
)

// ValidateName checks a campaign or artist name against the shared length
// bounds.
func ValidateName(name string) error {
	if len(name) < NameMinLen {
		return ErrNameTooShort
	}
	if len(name) > NameMaxLen {
		return ErrNameTooLong
	}
	return nil
}

// ValidateDescription checks a campaign description.
func ValidateDescription(desc string) error {
	if len(desc) < DescriptionMinLen {
		return ErrDescriptionTooShort
	}
	return nil
}

// ValidateBio checks an artist bio. Same bound as descriptions but a
// distinct reason so callers can tell which field was rejected.
func ValidateBio(bio string) error {
	if len(bio) < DescriptionMinLen {
		return ErrBioTooShort
	}
	return nil
}

// ValidateFees accepts only the three supported platform fee options.
func ValidateFees(feesPercent uint8) error {
	switch feesPercent {
	case 0, 5, 10:
		return nil
	default:
		return ErrWrongFeesOption
	}
}
