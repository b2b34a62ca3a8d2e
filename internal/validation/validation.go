// Package validation checks vehicles and fuel records before they are sent
// or stored. It is independent of the metrics engine.
package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ukydev/fuel-tracker/internal/apperror"
	"github.com/ukydev/fuel-tracker/internal/models"
)

var errInvalidPhone = errors.New("invalid phone number")

// PriceTolerance is the relative tolerance for totalPrice == pricePerLiter * refillAmount.
const PriceTolerance = 1e-9

// Vehicle validates a vehicle registration or update. now bounds the year of make.
func Vehicle(v models.Vehicle, now time.Time) error {
	var fields []apperror.FieldError
	if strings.TrimSpace(v.Plate) == "" {
		fields = append(fields, apperror.FieldError{Field: "plate", Message: "license plate is required"})
	}
	if strings.TrimSpace(v.Make) == "" {
		fields = append(fields, apperror.FieldError{Field: "make", Message: "make is required"})
	}
	if strings.TrimSpace(v.Model) == "" {
		fields = append(fields, apperror.FieldError{Field: "model", Message: "model is required"})
	}
	if !models.IsValidEngineType(v.EngineType) {
		fields = append(fields, apperror.FieldError{Field: "engineType", Message: "must be one of Gasoline, Diesel, Hybrid, Electric, Other"})
	}
	currentYear := now.Year()
	if v.YearOfMake < models.MinYearOfMake {
		fields = append(fields, apperror.FieldError{Field: "yearOfMake", Message: "year must be after " + strconv.Itoa(models.MinYearOfMake)})
	} else if v.YearOfMake > currentYear {
		fields = append(fields, apperror.FieldError{Field: "yearOfMake", Message: "year must not be later than " + strconv.Itoa(currentYear)})
	}
	if v.AvgConsumption != nil && (*v.AvgConsumption < 0 || math.IsNaN(*v.AvgConsumption)) {
		fields = append(fields, apperror.FieldError{Field: "avgConsumption", Message: "must not be negative"})
	}
	if len(fields) > 0 {
		return apperror.Validation(fields...)
	}
	return nil
}

// FuelRecord validates a fuel record. The total price must already be set;
// see CompleteFuelRecord.
func FuelRecord(r models.FuelRecord) error {
	var fields []apperror.FieldError
	if r.Date.IsZero() {
		fields = append(fields, apperror.FieldError{Field: "date", Message: "date is required"})
	}
	nonNegative := []struct {
		field string
		value float64
	}{
		{"currentEstimateKm", r.CurrentEstimateKm},
		{"odometer", r.Odometer},
		{"avgConsumption", r.AvgConsumption},
		{"refillAmount", r.RefillAmount},
		{"estimatedDistanceKm", r.EstimatedDistanceKm},
		{"pricePerLiter", r.PricePerLiter},
		{"totalPrice", r.TotalPrice},
	}
	for _, n := range nonNegative {
		if n.value < 0 || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			fields = append(fields, apperror.FieldError{Field: n.field, Message: "must be a non-negative number"})
		}
	}
	if r.PreviousOdometer != nil && *r.PreviousOdometer < 0 {
		fields = append(fields, apperror.FieldError{Field: "previousOdometer", Message: "must be a non-negative number"})
	}
	if !PriceMatches(r.PricePerLiter, r.RefillAmount, r.TotalPrice) {
		fields = append(fields, apperror.FieldError{Field: "totalPrice", Message: "total price must be equal to price per liter * refill amount"})
	}
	if len(fields) > 0 {
		return apperror.Validation(fields...)
	}
	return nil
}

// CompleteFuelRecord returns a copy of r with TotalPrice derived from
// PricePerLiter * RefillAmount when it was left at zero.
func CompleteFuelRecord(r models.FuelRecord) models.FuelRecord {
	if r.TotalPrice == 0 {
		r.TotalPrice = r.PricePerLiter * r.RefillAmount
	}
	return r
}

// PriceMatches reports whether total equals pricePerLiter*refillAmount
// within PriceTolerance.
func PriceMatches(pricePerLiter, refillAmount, total float64) bool {
	expected := pricePerLiter * refillAmount
	return math.Abs(expected-total) <= PriceTolerance*math.Max(1, math.Max(math.Abs(expected), math.Abs(total)))
}

// Password enforces the minimum password policy.
func Password(password string) error {
	if len(password) < 8 {
		return apperror.Validation(apperror.FieldError{Field: "password", Message: "password must be at least 8 characters long"})
	}
	return nil
}

// Registration validates a sign-up request.
func Registration(req models.RegisterRequest) error {
	var fields []apperror.FieldError
	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, apperror.FieldError{Field: "name", Message: "name is required"})
	}
	if err := Phone(req.Phone); err != nil {
		fields = append(fields, apperror.FieldError{Field: "phone", Message: err.Error()})
	}
	if len(req.Password) < 8 {
		fields = append(fields, apperror.FieldError{Field: "password", Message: "password must be at least 8 characters long"})
	}
	if len(fields) > 0 {
		return apperror.Validation(fields...)
	}
	return nil
}

// Phone checks a phone number: optional leading '+', then 6 to 15 digits.
// Spaces and dashes are ignored.
func Phone(phone string) error {
	digits := 0
	for i, c := range phone {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '+' && i == 0:
		case c == ' ' || c == '-':
		default:
			return errInvalidPhone
		}
	}
	if digits < 6 || digits > 15 {
		return errInvalidPhone
	}
	return nil
}
