package service

import (
	"context"
	"strconv"
	"strings"
)

// Flyer numbers accepted by the interview step.
const (
	FlyerMin = 1
	FlyerMax = 60_000
)

// flyerScanMax bounds the values Next considers. Wider than the interview
// range on purpose: legacy imports carry numbers above 60 000 and the next
// suggestion must not collide with them.
const flyerScanMax = 30_000_000

// FlyerAllocator guarantees process-wide uniqueness of flyer numbers by
// numeric value, over all persisted contacts. No number is reserved between
// the Exists check and the contact update; the unique index on the column
// is the backstop for that window.
type FlyerAllocator struct {
	numbers flyerNumberSource
}

type flyerNumberSource interface {
	ListFlyerNumbers(ctx context.Context) ([]string, error)
}

func NewFlyerAllocator(numbers flyerNumberSource) *FlyerAllocator {
	return &FlyerAllocator{numbers: numbers}
}

// Exists reports whether any stored value parses to the same integer.
// Non-numeric stored garbage is skipped (tolerant read).
func (a *FlyerAllocator) Exists(ctx context.Context, num int) (bool, error) {
	stored, err := a.numbers.ListFlyerNumbers(ctx)
	if err != nil {
		return false, err
	}
	for _, raw := range stored {
		n, ok := parseFlyerValue(raw)
		if ok && n == num {
			return true, nil
		}
	}
	return false, nil
}

// Next suggests max+1 over the valid stored values, or 1 when none exist.
func (a *FlyerAllocator) Next(ctx context.Context) (int, error) {
	stored, err := a.numbers.ListFlyerNumbers(ctx)
	if err != nil {
		return 0, err
	}
	maxNum := 0
	for _, raw := range stored {
		n, ok := parseFlyerValue(raw)
		if ok && n >= 1 && n <= flyerScanMax && n > maxNum {
			maxNum = n
		}
	}
	if maxNum == 0 {
		return 1, nil
	}
	return maxNum + 1, nil
}

func parseFlyerValue(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
