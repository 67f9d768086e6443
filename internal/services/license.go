package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	ErrLicenseMissing = errors.New("arquivo de licença não encontrado")
	ErrLicenseExpired = errors.New("licença expirada")
)

// License is the content of the licence file.
type License struct {
	Cliente  string `json:"cliente"`
	ExpiraEm string `json:"expira_em"` // YYYY-MM-DD, valid through the end of that day
}

// Expiry returns the first instant the licence is no longer valid.
func (l License) Expiry() (time.Time, error) {
	day, err := time.Parse("2006-01-02", l.ExpiraEm)
	if err != nil {
		return time.Time{}, fmt.Errorf("licença: data inválida %q", l.ExpiraEm)
	}
	return day.AddDate(0, 0, 1), nil
}

// DaysLeft is the number of whole days until the licence expires.
func (l License) DaysLeft(now time.Time) int {
	expiry, err := l.Expiry()
	if err != nil {
		return 0
	}
	return int(expiry.Sub(now).Hours() / 24)
}

// CheckLicense reads the licence file and verifies it is still valid at now.
// The licence is returned even when expired so callers can report it.
func CheckLicense(path string, now time.Time) (*License, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLicenseMissing, path)
		}
		return nil, err
	}
	var lic License
	if err := json.Unmarshal(data, &lic); err != nil {
		return nil, fmt.Errorf("licença: %w", err)
	}
	expiry, err := lic.Expiry()
	if err != nil {
		return nil, err
	}
	if !now.Before(expiry) {
		return &lic, fmt.Errorf("%w em %s", ErrLicenseExpired, lic.ExpiraEm)
	}
	return &lic, nil
}
