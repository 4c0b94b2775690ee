package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aquascene/waitlist/internal/entity"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission(email string) *entity.Submission {
	return &entity.Submission{
		Name:        "Ada",
		Email:       email,
		Experience:  entity.Beginner,
		Interests:   []entity.Interest{entity.Interest3DDesign},
		GDPRConsent: true,
	}
}

func TestLedger_Append(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewLedger().WithClock(func() time.Time { return created })

	we, err := l.Append(ctx, newSubmission("ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, 1, we.Position)
	assert.NotEmpty(t, we.Id)
	assert.Equal(t, created, we.CreatedAt)
	assert.Equal(t, entity.DefaultLocale, we.Locale)

	we2, err := l.Append(ctx, newSubmission("grace@example.com"))
	require.NoError(t, err)
	assert.Equal(t, 2, we2.Position)
	assert.NotEqual(t, we.Id, we2.Id)
	assert.Equal(t, 2, l.Len())
}

func TestLedger_AppendDuplicateIgnoresCase(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	_, err := l.Append(ctx, newSubmission("ada@example.com"))
	require.NoError(t, err)

	existing, err := l.Append(ctx, newSubmission("  ADA@Example.com "))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	require.NotNil(t, existing)
	assert.Equal(t, 1, existing.Position)
	assert.Equal(t, 1, l.Len())

	// the next accepted entry gets the next dense position
	we, err := l.Append(ctx, newSubmission("grace@example.com"))
	require.NoError(t, err)
	assert.Equal(t, 2, we.Position)
}

func TestLedger_FindByEmail(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	_, ok := l.FindByEmail(ctx, "ada@example.com")
	assert.False(t, ok)

	_, err := l.Append(ctx, newSubmission("Ada@Example.com"))
	require.NoError(t, err)

	we, ok := l.FindByEmail(ctx, "ada@example.COM")
	require.True(t, ok)
	assert.Equal(t, "Ada@Example.com", we.Email)
}

func TestLedger_ReturnedEntriesAreCopies(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	we, err := l.Append(ctx, newSubmission("ada@example.com"))
	require.NoError(t, err)
	we.Position = 42
	we.Interests[0] = entity.InterestCommunity

	stored, ok := l.FindByEmail(ctx, "ada@example.com")
	require.True(t, ok)
	assert.Equal(t, 1, stored.Position)
	assert.Equal(t, entity.Interest3DDesign, stored.Interests[0])
}

func TestLedger_Stats(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	st := l.Stats(ctx, 5)
	assert.Equal(t, 0, st.Total)
	assert.Len(t, st.Breakdown, 4)
	assert.True(t, st.MarketingConsentRate.Equal(decimal.Zero))
	assert.Empty(t, st.Recent)

	levels := []entity.ExperienceLevel{entity.Beginner, entity.Advanced, entity.Advanced}
	for i, lvl := range levels {
		s := newSubmission(fmt.Sprintf("user%d@example.com", i))
		s.Experience = lvl
		s.MarketingConsent = i == 0
		s.Interests = []entity.Interest{entity.InterestCommunity, entity.InterestMobileApp}
		_, err := l.Append(ctx, s)
		require.NoError(t, err)
	}

	st = l.Stats(ctx, 2)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Breakdown[entity.Beginner])
	assert.Equal(t, 0, st.Breakdown[entity.Intermediate])
	assert.Equal(t, 2, st.Breakdown[entity.Advanced])
	assert.Equal(t, 3, st.InterestBreakdown[entity.InterestCommunity])
	assert.Equal(t, 0, st.InterestBreakdown[entity.Interest3DDesign])
	assert.Equal(t, 1, st.MarketingConsent)
	assert.Equal(t, "33.33", st.MarketingConsentRate.StringFixed(2))

	require.Len(t, st.Recent, 2)
	assert.Equal(t, 3, st.Recent[0].Position)
	assert.Equal(t, 2, st.Recent[1].Position)

	// stats are read only
	assert.Equal(t, 3, l.Len())
}

func TestLedger_ConcurrentAppendsKeepPositionsDense(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	const n = 200
	var wg sync.WaitGroup
	positions := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			we, err := l.Append(ctx, newSubmission(fmt.Sprintf("user%d@example.com", i)))
			if err == nil {
				positions[i] = we.Position
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for _, p := range positions {
		assert.False(t, seen[p], "position %d assigned twice", p)
		seen[p] = true
	}
	for p := 1; p <= n; p++ {
		assert.True(t, seen[p], "position %d missing", p)
	}

	for i := 0; i < n; i++ {
		we, ok := l.FindByEmail(ctx, fmt.Sprintf("user%d@example.com", i))
		require.True(t, ok)
		assert.Equal(t, positions[i], we.Position)
	}
}

func TestLedger_Properties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("positions are dense and follow acceptance order; emails map to one entry", prop.ForAll(
		func(ids []int) bool {
			ctx := context.Background()
			l := NewLedger()
			unique := map[string]bool{}
			for i, id := range ids {
				email := fmt.Sprintf("user%d@example.com", id)
				if i%2 == 1 {
					email = strings.ToUpper(email)
				}
				we, err := l.Append(ctx, newSubmission(email))
				key := strings.ToLower(email)
				if unique[key] {
					if err == nil {
						return false
					}
					continue
				}
				unique[key] = true
				if err != nil || we.Position != len(unique) {
					return false
				}
			}
			return l.Len() == len(unique)
		},
		gen.SliceOf(gen.IntRange(0, 8)),
	))

	properties.TestingRun(t)
}
