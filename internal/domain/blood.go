package domain

import "time"

// BloodType is one of the eight ABO/Rh combinations.
type BloodType string

const (
	BloodTypeOPositive  BloodType = "O Positive"
	BloodTypeONegative  BloodType = "O Negative"
	BloodTypeAPositive  BloodType = "A Positive"
	BloodTypeANegative  BloodType = "A Negative"
	BloodTypeBPositive  BloodType = "B Positive"
	BloodTypeBNegative  BloodType = "B Negative"
	BloodTypeABPositive BloodType = "AB Positive"
	BloodTypeABNegative BloodType = "AB Negative"
)

// BloodTypes lists every recognized blood type in a stable order.
var BloodTypes = []BloodType{
	BloodTypeOPositive,
	BloodTypeONegative,
	BloodTypeAPositive,
	BloodTypeANegative,
	BloodTypeBPositive,
	BloodTypeBNegative,
	BloodTypeABPositive,
	BloodTypeABNegative,
}

// ParseBloodType validates a raw label against the closed 8-value set.
func ParseBloodType(raw string) (BloodType, error) {
	for _, bt := range BloodTypes {
		if string(bt) == raw {
			return bt, nil
		}
	}
	return "", ErrInvalidBloodType
}

// BloodUnit is a donated unit available in the inventory ledger.
type BloodUnit struct {
	ID        int64
	Hospital  string
	DonatedAt time.Time
	BloodType BloodType
	Expiry    time.Time
	Location  string
	Donator   string
}
