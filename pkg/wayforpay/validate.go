package wayforpay

import (
	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
)

// Validate checks fields against the required-field list of t and reports
// every field that is absent or empty.
func Validate(t TransactionType, fields Fields) error {
	rule, err := Rules(t)
	if err != nil {
		return err
	}

	var missing []string
	for _, name := range rule.RequiredFields(fields) {
		if isEmpty(fields[name]) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.NewMissingFieldsError(missing)
	}
	return nil
}
