package browse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/kiosk/internal/content"
)

func loadedController(t *testing.T, repo *fakeRepo, opts Options) *Controller {
	t.Helper()
	c := NewController(repo, opts)
	h := c.Load(context.Background())
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	return c
}

func TestController_InitialLoad(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 10, "B", 8, "C", 5))
	c := NewController(repo, Options{PageSize: 10})

	h := c.Load(context.Background())
	require.NotNil(t, h)
	assert.Equal(t, StateQuerying, c.State())
	assert.True(t, c.Snapshot().Querying)
	assert.True(t, h.Query.Unfiltered())
	assert.Equal(t, DefaultLimit, h.Query.Limit)

	assert.Equal(t, OutcomeAccepted, c.Apply(h.Run()))

	v := c.Snapshot()
	assert.Equal(t, StateCommitted, v.State)
	assert.False(t, v.Querying)
	assert.Len(t, v.AllResults, 23)
	assert.Len(t, v.Results, 10)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, content.AllCategory, v.SelectedCategory)
	assert.Equal(t, 23, c.Count(content.AllCategory))
	assert.Equal(t, []content.CategoryCount{
		{Name: content.AllCategory, Count: 23},
		{Name: "A", Count: 10},
		{Name: "B", Count: 8},
		{Name: "C", Count: 5},
	}, v.Categories)
}

func TestController_SingleCharacterSearchRejected(t *testing.T) {
	for _, input := range []string{"a", " b ", "\tz\n", "é", "日"} {
		t.Run(input, func(t *testing.T) {
			repo := newFakeRepo(makeItems("A", 3))
			c := loadedController(t, repo, Options{})
			calls := repo.callCount()
			before := c.Snapshot().AllResults

			h, err := c.SubmitSearch(context.Background(), input)
			assert.Nil(t, h)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Reason, "minimum 2 characters")

			v := c.Snapshot()
			assert.Equal(t, StateRejected, v.State)
			assert.Equal(t, err, v.ValidationError)
			assert.Equal(t, before, v.AllResults)
			assert.Equal(t, "", v.SearchTerm)
			assert.Equal(t, calls, repo.callCount(), "rejected input must not reach the source")
		})
	}
}

func TestController_EmptySearchClearsTerm(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 3, "B", 2))
	c := loadedController(t, repo, Options{})

	h, err := c.SubmitSearch(context.Background(), "story 1")
	require.NoError(t, err)
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	assert.Equal(t, "story 1", c.Snapshot().SearchTerm)
	assert.Len(t, c.Snapshot().AllResults, 2)

	h, err = c.SubmitSearch(context.Background(), "   ")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "", h.Query.SearchTerm)
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	assert.Len(t, c.Snapshot().AllResults, 5)
}

func TestController_SearchKeepsCategory(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 3, "B", 3))
	c := loadedController(t, repo, Options{})

	require.Equal(t, OutcomeAccepted, c.Apply(c.SelectCategory(context.Background(), "B").Run()))

	h, err := c.SubmitSearch(context.Background(), "  story   2 ")
	require.NoError(t, err)
	assert.Equal(t, content.Query{Limit: DefaultLimit, SearchTerm: "story 2", Category: "B"}, h.Query)

	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	assert.Equal(t, []string{"b-2"}, ids(c.Snapshot().AllResults))
}

func TestController_OnlyLastCategorySwitchCommits(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 4, "B", 3, "C", 2))
	c := loadedController(t, repo, Options{})

	ctx := context.Background()
	hA := c.SelectCategory(ctx, "A")
	hB := c.SelectCategory(ctx, "B")
	hC := c.SelectCategory(ctx, "C")

	// Resolve the last one first, then the older ones late.
	sC, sA, sB := hC.Run(), hA.Run(), hB.Run()

	assert.Equal(t, OutcomeAccepted, c.Apply(sC))
	assert.Equal(t, OutcomeIgnored, c.Apply(sA))
	assert.Equal(t, OutcomeIgnored, c.Apply(sB))

	v := c.Snapshot()
	assert.Equal(t, []string{"c-0", "c-1"}, ids(v.AllResults))
	assert.Equal(t, "C", v.SelectedCategory)
}

func TestController_OlderResolvingFirstStillLoses(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 4, "B", 3))
	c := loadedController(t, repo, Options{})

	ctx := context.Background()
	hA := c.SelectCategory(ctx, "A")
	hB := c.SelectCategory(ctx, "B")

	assert.Equal(t, OutcomeIgnored, c.Apply(hA.Run()))
	assert.True(t, c.Snapshot().Querying, "newer request still in flight")
	assert.Len(t, c.Snapshot().AllResults, 7, "stale response must not commit")

	assert.Equal(t, OutcomeAccepted, c.Apply(hB.Run()))
	assert.Equal(t, []string{"b-0", "b-1", "b-2"}, ids(c.Snapshot().AllResults))
}

func TestController_ClearFiltersRestoresInitialLoad(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 12, "B", 9))
	c := loadedController(t, repo, Options{PageSize: 5})
	initial := c.Snapshot().AllResults

	ctx := context.Background()
	require.Equal(t, OutcomeAccepted, c.Apply(c.SelectCategory(ctx, "A").Run()))
	h, err := c.SubmitSearch(ctx, "story 1")
	require.NoError(t, err)
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	c.GoToPage(2)

	h = c.ClearFilters(ctx)
	assert.True(t, h.Query.Unfiltered())
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))

	v := c.Snapshot()
	assert.Equal(t, initial, v.AllResults)
	assert.Equal(t, content.AllCategory, v.SelectedCategory)
	assert.Equal(t, "", v.SearchTerm)
	assert.Equal(t, 1, v.CurrentPage)
}

func TestController_BaselineCountsSurviveFiltering(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 10, "B", 8, "C", 5))
	c := loadedController(t, repo, Options{})
	baseline := c.Snapshot().Categories

	ctx := context.Background()
	h := c.SelectCategory(ctx, "B")
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))

	v := c.Snapshot()
	assert.Len(t, v.AllResults, 8)
	assert.Equal(t, 8, c.Count("B"))
	assert.Equal(t, 23, c.Count(content.AllCategory))

	for _, term := range []string{"story 1", "zz", "", "C story"} {
		hs, err := c.SubmitSearch(ctx, term)
		require.NoError(t, err)
		c.Apply(hs.Run())
	}
	require.Equal(t, OutcomeAccepted, c.Apply(c.ClearFilters(ctx).Run()))

	assert.Equal(t, baseline, c.Snapshot().Categories)
	assert.Equal(t, 10+8+5, c.Count(content.AllCategory))
}

func TestController_SearchThenCategoryMidFlight(t *testing.T) {
	items := []content.Item{
		{ID: "1", Title: "Release notes", Category: "News"},
		{ID: "2", Title: "Recipe of the week", Category: "Food"},
		{ID: "3", Title: "Market report", Category: "News"},
		{ID: "4", Title: "Weather", Category: "News"},
	}
	repo := newFakeRepo(items)
	c := loadedController(t, repo, Options{})

	ctx := context.Background()
	hSearch, err := c.SubmitSearch(ctx, "re")
	require.NoError(t, err)
	hNews := c.SelectCategory(ctx, "News")
	assert.Equal(t, "re", hNews.Query.SearchTerm, "category switch keeps the term")

	sNews := hNews.Run()
	sSearch := hSearch.Run()

	assert.Equal(t, OutcomeIgnored, c.Apply(sSearch))
	assert.Equal(t, OutcomeAccepted, c.Apply(sNews))
	assert.Equal(t, []string{"1", "3"}, ids(c.Snapshot().AllResults))

	// The search response arriving again later still cannot commit.
	assert.Equal(t, OutcomeIgnored, c.Apply(sSearch))
	assert.Equal(t, []string{"1", "3"}, ids(c.Snapshot().AllResults))
}

func TestController_FailureKeepsResults(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 6, "B", 4))
	c := loadedController(t, repo, Options{PageSize: 3})
	c.GoToPage(2)
	before := c.Snapshot()

	boom := errors.New("502 bad gateway")
	repo.setFail(boom)

	h := c.SelectCategory(context.Background(), "B")
	assert.True(t, c.Snapshot().Querying)
	assert.Equal(t, OutcomeFailed, c.Apply(h.Run()))

	v := c.Snapshot()
	assert.False(t, v.Querying)
	assert.ErrorIs(t, v.LastError, boom)
	assert.Equal(t, StateIdle, v.State)
	assert.Equal(t, before.AllResults, v.AllResults)
	assert.Equal(t, "B", v.SelectedCategory)

	c.DismissError()
	assert.NoError(t, c.Snapshot().LastError)

	repo.setFail(nil)
	require.Equal(t, OutcomeAccepted, c.Apply(c.SelectCategory(context.Background(), "B").Run()))
	assert.NoError(t, c.Snapshot().LastError)
	assert.Len(t, c.Snapshot().AllResults, 4)
}

func TestController_FailedInitialLoadLeavesCacheOpen(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 2, "B", 1))
	repo.setFail(errors.New("offline"))
	c := NewController(repo, Options{})

	assert.Equal(t, OutcomeFailed, c.Apply(c.Load(context.Background()).Run()))
	assert.Equal(t, 0, c.Count(content.AllCategory))

	repo.setFail(nil)
	require.Equal(t, OutcomeAccepted, c.Apply(c.ClearFilters(context.Background()).Run()))
	assert.Equal(t, 3, c.Count(content.AllCategory))
}

func TestController_SearchBeforeLoadSettlesKeepsBaseline(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 10, "B", 8, "C", 5))
	c := NewController(repo, Options{})

	load := c.Load(context.Background())
	search, err := c.SubmitSearch(context.Background(), "story 1")
	require.NoError(t, err)

	require.Equal(t, OutcomeAccepted, c.Apply(search.Run()))
	results := c.Snapshot().AllResults

	assert.Equal(t, OutcomeIgnored, c.Apply(load.Run()), "late load never replaces results")
	assert.Equal(t, results, c.Snapshot().AllResults)
	assert.Equal(t, "story 1", c.Snapshot().SearchTerm)

	assert.Equal(t, 23, c.Count(content.AllCategory))
	assert.Equal(t, 8, c.Count("B"))
	assert.Len(t, c.Snapshot().Categories, 4)

	h := c.SelectCategory(context.Background(), "B")
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	assert.Equal(t, 23, c.Count(content.AllCategory))
	assert.Equal(t, 8, c.Count("B"))
}

func TestController_FilteredCommitDoesNotSetBaseline(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 2, "B", 1))
	c := NewController(repo, Options{})

	load := c.Load(context.Background())
	h := c.SelectCategory(context.Background(), "B")
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	assert.Equal(t, 0, c.Count(content.AllCategory), "filtered counts are not the baseline")

	c.Apply(load.Run())
	assert.Equal(t, 3, c.Count(content.AllCategory))
	assert.Equal(t, 1, c.Count("B"))
}

func TestController_CloseCancelsLoad(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 2))
	c := NewController(repo, Options{})

	load := c.Load(context.Background())
	c.Close()

	assert.Equal(t, OutcomeIgnored, c.Apply(load.Run()))
	assert.Equal(t, 0, c.Count(content.AllCategory))
}

func TestController_PageResets(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 30, "B", 25))
	c := loadedController(t, repo, Options{PageSize: 10})

	c.GoToPage(4)
	assert.Equal(t, 4, c.Snapshot().CurrentPage)

	c.GoToPage(99)
	assert.Equal(t, 6, c.Snapshot().CurrentPage)

	c.PrevPage()
	assert.Equal(t, 5, c.Snapshot().CurrentPage)
	c.NextPage()
	c.NextPage()
	assert.Equal(t, 6, c.Snapshot().CurrentPage)

	h := c.SelectCategory(context.Background(), "A")
	assert.Equal(t, 1, c.Snapshot().CurrentPage, "filter change resets page at issue time")

	c.GoToPage(2)
	require.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	assert.Equal(t, 1, c.Snapshot().CurrentPage, "commit resets page")
	assert.Equal(t, 3, c.Snapshot().TotalPages)
}

func TestController_RejectionDoesNotCancelInFlight(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 2, "B", 2))
	c := loadedController(t, repo, Options{})

	h := c.SelectCategory(context.Background(), "A")
	_, err := c.SubmitSearch(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, StateRejected, c.State())
	assert.True(t, c.Snapshot().Querying)

	assert.Equal(t, OutcomeAccepted, c.Apply(h.Run()))
	assert.Equal(t, StateCommitted, c.State())
	assert.Equal(t, []string{"a-0", "a-1"}, ids(c.Snapshot().AllResults))
}

func TestController_Acknowledge(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 1))
	c := loadedController(t, repo, Options{})
	assert.Equal(t, StateCommitted, c.State())

	c.Acknowledge()
	assert.Equal(t, StateIdle, c.State())

	_, _ = c.SubmitSearch(context.Background(), "q")
	assert.Equal(t, StateRejected, c.State())
	c.Acknowledge()
	assert.Equal(t, StateIdle, c.State())
}

func TestController_CloseDropsLateSettlements(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 3))
	c := loadedController(t, repo, Options{})

	h := c.SelectCategory(context.Background(), "A")
	s := h.Run()
	c.Close()

	assert.Equal(t, OutcomeIgnored, c.Apply(s))
	v := c.Snapshot()
	assert.Empty(t, v.AllResults)
	assert.False(t, v.Querying)
	assert.Equal(t, StateIdle, v.State)
}

func TestController_SupersededAtSourceEndsQuerying(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 1))
	c := loadedController(t, repo, Options{})

	repo.setFail(content.ErrSuperseded)
	h := c.SelectCategory(context.Background(), "A")
	assert.Equal(t, OutcomeIgnored, c.Apply(h.Run()))

	v := c.Snapshot()
	assert.False(t, v.Querying)
	assert.NoError(t, v.LastError)
	assert.NotEqual(t, StateQuerying, v.State)
}

func TestController_EmptyCategoryMeansAll(t *testing.T) {
	repo := newFakeRepo(makeItems("A", 1, "B", 1))
	c := loadedController(t, repo, Options{})

	h := c.SelectCategory(context.Background(), "")
	assert.Equal(t, "", h.Query.Category)
	assert.Equal(t, content.AllCategory, c.Snapshot().SelectedCategory)
}
