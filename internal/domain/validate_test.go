package domain

import (
	"errors"
	"testing"
)

func TestPassengerCountValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       PassengerCount
		wantErr bool
	}{
		{"single adult male", PassengerCount{AdultMen: 1}, false},
		{"boundary thirteen rejected", PassengerCount{AdultMen: 10, AdultWomen: 3}, true},
		{"boundary twelve accepted", PassengerCount{AdultMen: 10, AdultWomen: 2}, false},
		{"zero total rejected", PassengerCount{}, true},
		{"negative rejected", PassengerCount{AdultMen: -1, AdultWomen: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestPassengerCountMaleFemaleSplit(t *testing.T) {
	p := PassengerCount{AdultMen: 2, AdultWomen: 1, ChildMen: 1, HandicapAdultWomen: 1}
	if got := p.TotalMale(); got != 3 {
		t.Errorf("TotalMale() = %d, want 3", got)
	}
	if got := p.TotalFemale(); got != 2 {
		t.Errorf("TotalFemale() = %d, want 2", got)
	}
	if got, want := p.TotalMale()+p.TotalFemale(), p.Total(); got != want {
		t.Errorf("male+female = %d, total = %d", got, want)
	}
}

func TestTrackedRouteValidate(t *testing.T) {
	start, _ := ParseDate("2025-10-12")
	end, _ := ParseDate("2025-10-10")
	r := TrackedRoute{OriginCode: "001", DestCode: "064", DateStart: start, DateEnd: end}
	if err := r.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for inverted date range, got %v", err)
	}
}
