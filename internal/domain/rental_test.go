package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func newTestRental(t *testing.T, mutate func(p *RentalParams)) *Rental {
	t.Helper()
	p := RentalParams{
		ID:               "rental-1",
		VehicleID:        "vehicle-1",
		RenterID:         "renter-1",
		OwnerID:          "owner-1",
		StartDate:        day(15),
		EndDate:          day(20),
		BasePrice:        money("750"),
		VerificationCode: "123456",
	}
	if mutate != nil {
		mutate(&p)
	}
	r, err := NewRental(p, testNow)
	require.NoError(t, err)
	return r
}

func activeRental(t *testing.T) *Rental {
	t.Helper()
	r := newTestRental(t, nil)
	require.True(t, r.VerifyPayment("123456", testNow))
	return r
}

func TestNewRental(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		r := newTestRental(t, nil)

		assert.Equal(t, RentalStatusPending, r.Status)
		assert.False(t, r.PaymentVerified)
		assert.False(t, r.IsLateReturn)
		assert.Equal(t, 5, r.RentalDuration)
		assert.Equal(t, r.EndDate, r.OriginalEndDate)
		assert.True(t, r.DiscountPercentage.IsZero())
		assert.True(t, r.AdditionalChargePercentage.IsZero())
		assert.True(t, money("750").Equal(r.FinalPrice))
		assert.Nil(t, r.CounterofferAmount)
		assert.Nil(t, r.CounterofferStatus)
		assert.Equal(t, testNow, r.CreatedAt)
		assert.Equal(t, testNow, r.UpdatedAt)
	})

	t.Run("Discount on 100", func(t *testing.T) {
		r := newTestRental(t, func(p *RentalParams) {
			p.BasePrice = money("100")
			p.DiscountPercentage = money("10")
		})
		assert.Equal(t, "90", r.FinalPrice.String())
		assert.Equal(t, "90.00", r.FinalPrice.StringFixed(2))
	})

	t.Run("Five days at 150.50 with loyalty discount", func(t *testing.T) {
		r := newTestRental(t, func(p *RentalParams) {
			p.BasePrice = money("150.50").Mul(decimal.NewFromInt(5))
			p.DiscountPercentage = money("10")
		})
		assert.Equal(t, 5, r.RentalDuration)
		assert.True(t, money("752.50").Equal(r.BasePrice))
		assert.True(t, money("677.25").Equal(r.FinalPrice))
	})

	t.Run("Discount and surcharge both apply", func(t *testing.T) {
		r := newTestRental(t, func(p *RentalParams) {
			p.BasePrice = money("100")
			p.DiscountPercentage = money("10")
			p.AdditionalChargePercentage = money("15")
		})
		// 100 * 0.9 * 1.15
		assert.True(t, money("103.50").Equal(r.FinalPrice))
	})

	t.Run("Rounds half away from zero", func(t *testing.T) {
		r := newTestRental(t, func(p *RentalParams) {
			p.BasePrice = money("33.35")
			p.DiscountPercentage = money("10")
		})
		// 33.35 * 0.9 = 30.015
		assert.True(t, money("30.02").Equal(r.FinalPrice))
	})

	t.Run("Partial day counts as a full day", func(t *testing.T) {
		r := newTestRental(t, func(p *RentalParams) {
			p.EndDate = day(20).Add(time.Hour)
		})
		assert.Equal(t, 6, r.RentalDuration)
	})

	t.Run("Seeded counteroffer is pending", func(t *testing.T) {
		amount := money("600")
		r := newTestRental(t, func(p *RentalParams) { p.CounterofferAmount = &amount })
		require.NotNil(t, r.CounterofferStatus)
		assert.Equal(t, CounterofferStatusPending, *r.CounterofferStatus)
		assert.True(t, money("750").Equal(r.FinalPrice))
	})

	t.Run("Rejects invalid input", func(t *testing.T) {
		zero := decimal.Zero
		cases := map[string]func(p *RentalParams){
			"missing start":     func(p *RentalParams) { p.StartDate = time.Time{} },
			"missing end":       func(p *RentalParams) { p.EndDate = time.Time{} },
			"end before start":  func(p *RentalParams) { p.EndDate = day(10) },
			"end equals start":  func(p *RentalParams) { p.EndDate = p.StartDate },
			"negative base":     func(p *RentalParams) { p.BasePrice = money("-1") },
			"zero counteroffer": func(p *RentalParams) { p.CounterofferAmount = &zero },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				p := RentalParams{StartDate: day(15), EndDate: day(20), BasePrice: money("100")}
				mutate(&p)
				_, err := NewRental(p, testNow)
				assert.True(t, errors.Is(err, ErrInvalidArgument))
			})
		}
	})
}

func TestRental_VerifyPayment(t *testing.T) {
	t.Run("Correct code activates", func(t *testing.T) {
		r := newTestRental(t, nil)
		later := testNow.Add(time.Hour)

		assert.True(t, r.VerifyPayment("123456", later))
		assert.True(t, r.PaymentVerified)
		assert.Equal(t, RentalStatusActive, r.Status)
		assert.Equal(t, later, r.UpdatedAt)
	})

	t.Run("Wrong code leaves rental untouched", func(t *testing.T) {
		r := newTestRental(t, nil)
		before := *r

		assert.False(t, r.VerifyPayment("654321", testNow.Add(time.Hour)))
		assert.Equal(t, before, *r)
	})

	t.Run("Empty code never matches", func(t *testing.T) {
		r := newTestRental(t, func(p *RentalParams) { p.VerificationCode = "" })
		assert.False(t, r.VerifyPayment("", testNow))
		assert.True(t, r.IsPending())
	})

	t.Run("Idempotent on active rental", func(t *testing.T) {
		r := activeRental(t)
		updated := r.UpdatedAt

		assert.True(t, r.VerifyPayment("123456", testNow.Add(time.Hour)))
		assert.Equal(t, updated, r.UpdatedAt)
	})

	t.Run("Terminal rentals cannot be reactivated", func(t *testing.T) {
		r := newTestRental(t, nil)
		require.NoError(t, r.Cancel(testNow))

		assert.False(t, r.VerifyPayment("123456", testNow))
		assert.Equal(t, RentalStatusCancelled, r.Status)
	})
}

func TestRental_Extend(t *testing.T) {
	t.Run("Keeps per-day base rate", func(t *testing.T) {
		r := activeRental(t)

		require.NoError(t, r.Extend(day(22), testNow))
		assert.Equal(t, 7, r.RentalDuration)
		assert.Equal(t, day(20), r.OriginalEndDate)
		assert.Equal(t, day(22), r.EndDate)
		assert.True(t, money("1050").Equal(r.BasePrice))
		assert.True(t, money("1050").Equal(r.FinalPrice))
	})

	t.Run("Reapplies discount", func(t *testing.T) {
		r := newTestRental(t, func(p *RentalParams) { p.DiscountPercentage = money("10") })
		require.True(t, r.VerifyPayment("123456", testNow))

		require.NoError(t, r.Extend(day(22), testNow))
		assert.True(t, money("945").Equal(r.FinalPrice))
	})

	t.Run("Requires active rental", func(t *testing.T) {
		r := newTestRental(t, nil)
		err := r.Extend(day(22), testNow)
		assert.True(t, errors.Is(err, ErrInvalidState))
		assert.Equal(t, day(20), r.EndDate)
	})

	t.Run("New end must be later", func(t *testing.T) {
		r := activeRental(t)
		err := r.Extend(day(20), testNow)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
		assert.Equal(t, 5, r.RentalDuration)
	})
}

func TestRental_Complete(t *testing.T) {
	end := day(20)
	tests := []struct {
		name     string
		returned time.Time
		late     bool
	}{
		{"Early", end.Add(-2 * time.Hour), false},
		{"Twenty nine minutes", end.Add(29 * time.Minute), false},
		{"Exactly thirty minutes", end.Add(30 * time.Minute), false},
		{"Thirty one minutes", end.Add(31 * time.Minute), true},
		{"Next day", end.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := activeRental(t)

			require.NoError(t, r.Complete(tt.returned, tt.returned))
			assert.Equal(t, RentalStatusCompleted, r.Status)
			require.NotNil(t, r.ActualReturnDate)
			assert.Equal(t, tt.returned, *r.ActualReturnDate)
			assert.Equal(t, tt.late, r.IsLateReturn)
		})
	}

	t.Run("Requires active rental", func(t *testing.T) {
		r := newTestRental(t, nil)
		err := r.Complete(end, end)
		assert.True(t, errors.Is(err, ErrInvalidState))
		assert.Nil(t, r.ActualReturnDate)
	})

	t.Run("Completed rental cannot complete again", func(t *testing.T) {
		r := activeRental(t)
		require.NoError(t, r.Complete(end.Add(time.Hour), end))
		err := r.Complete(end, end)
		assert.True(t, errors.Is(err, ErrInvalidState))
		assert.True(t, r.IsLateReturn)
	})
}

func TestRental_Cancel(t *testing.T) {
	t.Run("Pending", func(t *testing.T) {
		r := newTestRental(t, nil)
		require.NoError(t, r.Cancel(testNow))
		assert.True(t, r.IsCancelled())
		assert.True(t, r.IsTerminal())
	})

	t.Run("Active", func(t *testing.T) {
		r := activeRental(t)
		require.NoError(t, r.Cancel(testNow))
		assert.True(t, r.IsCancelled())
	})

	t.Run("Terminal states have no outgoing transitions", func(t *testing.T) {
		completed := activeRental(t)
		require.NoError(t, completed.Complete(day(20), day(20)))
		cancelled := newTestRental(t, nil)
		require.NoError(t, cancelled.Cancel(testNow))

		for _, r := range []*Rental{completed, cancelled} {
			status := r.Status
			assert.True(t, errors.Is(r.Cancel(testNow), ErrInvalidState))
			assert.True(t, errors.Is(r.Extend(day(25), testNow), ErrInvalidState))
			assert.True(t, errors.Is(r.Complete(day(25), testNow), ErrInvalidState))
			assert.Equal(t, status, r.Status)
		}
	})
}

func TestRental_Counteroffer(t *testing.T) {
	t.Run("Submit", func(t *testing.T) {
		r := newTestRental(t, nil)
		require.NoError(t, r.SubmitCounteroffer(money("600"), testNow))
		assert.True(t, r.HasPendingCounteroffer())
		assert.True(t, money("600").Equal(*r.CounterofferAmount))
	})

	t.Run("Submit requires pending rental", func(t *testing.T) {
		r := activeRental(t)
		err := r.SubmitCounteroffer(money("600"), testNow)
		assert.True(t, errors.Is(err, ErrInvalidState))
		assert.Nil(t, r.CounterofferAmount)
	})

	t.Run("Submit requires positive amount", func(t *testing.T) {
		r := newTestRental(t, nil)
		assert.True(t, errors.Is(r.SubmitCounteroffer(decimal.Zero, testNow), ErrInvalidArgument))
		assert.True(t, errors.Is(r.SubmitCounteroffer(money("-5"), testNow), ErrInvalidArgument))
	})

	t.Run("Accept overrides price without touching status", func(t *testing.T) {
		r := newTestRental(t, func(p *RentalParams) { p.DiscountPercentage = money("10") })
		require.NoError(t, r.SubmitCounteroffer(money("600.005"), testNow))

		assert.True(t, r.AcceptCounteroffer(testNow))
		assert.Equal(t, CounterofferStatusAccepted, *r.CounterofferStatus)
		assert.True(t, money("600.01").Equal(r.FinalPrice))
		assert.Equal(t, RentalStatusPending, r.Status)
	})

	t.Run("Accept without pending counteroffer", func(t *testing.T) {
		r := newTestRental(t, nil)
		assert.False(t, r.AcceptCounteroffer(testNow))
		assert.Nil(t, r.CounterofferStatus)
	})

	t.Run("Accept twice", func(t *testing.T) {
		r := newTestRental(t, nil)
		require.NoError(t, r.SubmitCounteroffer(money("600"), testNow))
		require.True(t, r.AcceptCounteroffer(testNow))
		assert.False(t, r.AcceptCounteroffer(testNow))
	})

	t.Run("Reject clears amount", func(t *testing.T) {
		r := newTestRental(t, nil)
		require.NoError(t, r.SubmitCounteroffer(money("600"), testNow))

		assert.True(t, r.RejectCounteroffer(testNow))
		assert.Nil(t, r.CounterofferAmount)
		require.NotNil(t, r.CounterofferStatus)
		assert.Equal(t, CounterofferStatusRejected, *r.CounterofferStatus)
		assert.True(t, money("750").Equal(r.FinalPrice))
		assert.Equal(t, RentalStatusPending, r.Status)
	})

	t.Run("Reject after accept", func(t *testing.T) {
		r := newTestRental(t, nil)
		require.NoError(t, r.SubmitCounteroffer(money("600"), testNow))
		require.True(t, r.AcceptCounteroffer(testNow))
		assert.False(t, r.RejectCounteroffer(testNow))
		assert.NotNil(t, r.CounterofferAmount)
	})

	t.Run("Resubmit after reject", func(t *testing.T) {
		r := newTestRental(t, nil)
		require.NoError(t, r.SubmitCounteroffer(money("600"), testNow))
		require.True(t, r.RejectCounteroffer(testNow))

		require.NoError(t, r.SubmitCounteroffer(money("650"), testNow))
		assert.True(t, r.HasPendingCounteroffer())
	})

	t.Run("Not on terminal rental", func(t *testing.T) {
		r := newTestRental(t, nil)
		require.NoError(t, r.SubmitCounteroffer(money("600"), testNow))
		require.NoError(t, r.Cancel(testNow))

		assert.False(t, r.AcceptCounteroffer(testNow))
		assert.False(t, r.RejectCounteroffer(testNow))
	})
}

func TestRental_IsParty(t *testing.T) {
	r := newTestRental(t, nil)
	assert.True(t, r.IsParty("renter-1"))
	assert.True(t, r.IsParty("owner-1"))
	assert.False(t, r.IsParty("someone-else"))
	assert.False(t, r.IsParty(""))
}
