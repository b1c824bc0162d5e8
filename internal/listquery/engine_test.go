package listquery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/deskops/ticket-desk/internal/domain"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func ticket(id string, title string, created, updated int) domain.Ticket {
	return domain.Ticket{
		ID:        domain.TicketID(id),
		Title:     title,
		Status:    domain.TicketStatusPending,
		CreatedAt: base.Add(time.Duration(created) * time.Hour),
		UpdatedAt: base.Add(time.Duration(updated) * time.Hour),
	}
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID.String()
	}
	return out
}

// fakeSource answers from a per-status table and records queries.
type fakeSource struct {
	mu       sync.Mutex
	byStatus map[domain.StatusFilter][]domain.Ticket
	err      error
	queries  []domain.ListQuery
}

func (f *fakeSource) ListTickets(ctx context.Context, query domain.ListQuery) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return slices.Clone(f.byStatus[query.Status]), nil
}

func manyTickets(n int) []domain.Ticket {
	out := make([]domain.Ticket, n)
	for i := range out {
		out[i] = ticket(fmt.Sprint(i+1), fmt.Sprintf("T%02d", i+1), i, i)
	}
	return out
}

func TestSortExample(t *testing.T) {
	tickets := []domain.Ticket{ticket("1", "B", 0, 2), ticket("2", "A", 0, 1)}

	byTitle := SortTickets(tickets, domain.Sort{Field: domain.SortByTitle, Order: domain.SortAsc}, nil)
	if got := ids(byTitle); !slices.Equal(got, []string{"2", "1"}) {
		t.Errorf("title asc = %v, want [2 1]", got)
	}
	byUpdated := SortTickets(tickets, domain.Sort{Field: domain.SortByUpdatedAt, Order: domain.SortDesc}, nil)
	if got := ids(byUpdated); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("updated_at desc = %v, want [1 2]", got)
	}
	if got := ids(tickets); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("input reordered: %v", got)
	}
}

func TestSortProperties(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("1", "delta", 4, 9),
		ticket("2", "Alpha", 1, 3),
		ticket("3", "charlie", 7, 5),
		ticket("4", "Bravo", 2, 8),
		ticket("5", "echo", 9, 1),
	}
	for _, field := range []domain.SortField{domain.SortByUpdatedAt, domain.SortByCreatedAt, domain.SortByTitle} {
		t.Run(string(field), func(t *testing.T) {
			asc := SortTickets(tickets, domain.Sort{Field: field, Order: domain.SortAsc}, nil)
			again := SortTickets(asc, domain.Sort{Field: field, Order: domain.SortAsc}, nil)
			if !slices.Equal(ids(asc), ids(again)) {
				t.Errorf("not idempotent: %v then %v", ids(asc), ids(again))
			}
			desc := SortTickets(tickets, domain.Sort{Field: field, Order: domain.SortDesc}, nil)
			reversed := slices.Clone(asc)
			slices.Reverse(reversed)
			if !slices.Equal(ids(reversed), ids(desc)) {
				t.Errorf("reversed asc %v != desc %v", ids(reversed), ids(desc))
			}
		})
	}
}

func TestSortTitleIsLocaleAware(t *testing.T) {
	tickets := []domain.Ticket{ticket("1", "zebra", 0, 0), ticket("2", "Éclair", 0, 0), ticket("3", "apple", 0, 0)}
	sorted := SortTickets(tickets, domain.Sort{Field: domain.SortByTitle, Order: domain.SortAsc}, NewCollator(language.English))
	if got := ids(sorted); !slices.Equal(got, []string{"3", "2", "1"}) {
		t.Errorf("title order = %v, want [3 2 1]", got)
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("9", "same", 1, 1),
		ticket("3", "same", 1, 1),
		ticket("5", "same", 1, 1),
	}
	for _, order := range []domain.SortOrder{domain.SortAsc, domain.SortDesc} {
		sorted := SortTickets(tickets, domain.Sort{Field: domain.SortByTitle, Order: order}, nil)
		if got := ids(sorted); !slices.Equal(got, []string{"9", "3", "5"}) {
			t.Errorf("%s ties reordered: %v", order, got)
		}
	}
}

func TestPagination(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 6, 12} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			sorted := manyTickets(n)
			pages := PageCount(n)
			want := max(1, (n+PageSize-1)/PageSize)
			if pages != want {
				t.Fatalf("PageCount(%d) = %d, want %d", n, pages, want)
			}
			var joined []domain.Ticket
			for p := 1; p <= pages; p++ {
				joined = append(joined, PageItems(sorted, p)...)
			}
			if !slices.Equal(ids(joined), ids(sorted)) {
				t.Errorf("pages concatenate to %v, want %v", ids(joined), ids(sorted))
			}
		})
	}
	if ClampPage(0, 0) != 1 || ClampPage(7, 12) != 3 || ClampPage(-3, 12) != 1 {
		t.Error("ClampPage out of bounds")
	}
}

func newLoadedEngine(t *testing.T, source *fakeSource) *Engine {
	t.Helper()
	engine := NewEngine(source)
	if err := engine.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return engine
}

func TestEngineDefaultsAndPaging(t *testing.T) {
	source := &fakeSource{byStatus: map[domain.StatusFilter][]domain.Ticket{domain.StatusFilterAll: manyTickets(12)}}
	engine := newLoadedEngine(t, source)

	page := engine.Snapshot()
	if page.Sort != domain.DefaultSort || page.Status != domain.StatusFilterAll {
		t.Fatalf("defaults = %+v %q", page.Sort, page.Status)
	}
	if page.Page != 1 || page.PageCount != 3 || page.Total != 12 || len(page.Items) != 5 {
		t.Fatalf("page = %+v", page)
	}
	// updated_at desc puts ticket 12 first.
	if page.Items[0].ID != "12" {
		t.Errorf("first item = %s, want 12", page.Items[0].ID)
	}

	engine.PrevPage()
	if engine.Snapshot().Page != 1 {
		t.Error("PrevPage on page 1 moved")
	}
	engine.GoToPage(99)
	if engine.Snapshot().Page != 3 {
		t.Errorf("GoToPage(99) = %d, want 3", engine.Snapshot().Page)
	}
	engine.NextPage()
	last := engine.Snapshot()
	if last.Page != 3 || len(last.Items) != 2 {
		t.Errorf("NextPage on last page = %+v", last)
	}
	engine.PrevPage()
	if engine.Snapshot().Page != 2 {
		t.Errorf("PrevPage = %d, want 2", engine.Snapshot().Page)
	}
}

func TestEmptyListStaysOnPageOne(t *testing.T) {
	engine := newLoadedEngine(t, &fakeSource{})
	engine.NextPage()
	engine.GoToPage(4)
	page := engine.Snapshot()
	if page.Page != 1 || page.PageCount != 1 || len(page.Items) != 0 {
		t.Errorf("empty page = %+v", page)
	}
}

func TestSetSortCreatedAtResetsOrder(t *testing.T) {
	engine := NewEngine(&fakeSource{})
	for _, prev := range []domain.SortOrder{domain.SortAsc, domain.SortDesc} {
		if err := engine.SetSort(domain.SortByTitle, prev); err != nil {
			t.Fatalf("SetSort: %v", err)
		}
		if err := engine.SetSortField(domain.SortByCreatedAt); err != nil {
			t.Fatalf("SetSortField: %v", err)
		}
		if got := engine.State().Sort; got != (domain.Sort{Field: domain.SortByCreatedAt, Order: domain.SortAsc}) {
			t.Errorf("after %s: sort = %+v", prev, got)
		}
	}
	if err := engine.SetSort(domain.SortByTitle, domain.SortDesc); err != nil {
		t.Fatalf("SetSort: %v", err)
	}
	if err := engine.SetSort(domain.SortByCreatedAt, domain.SortDesc); err != nil {
		t.Fatalf("SetSort: %v", err)
	}
	if got := engine.State().Sort.Order; got != domain.SortAsc {
		t.Errorf("switch to created_at with explicit desc kept %s", got)
	}

	engine.ToggleSortOrder()
	if err := engine.SetSortField(domain.SortByUpdatedAt); err != nil {
		t.Fatalf("SetSortField: %v", err)
	}
	if got := engine.State().Sort.Order; got != domain.SortDesc {
		t.Errorf("other field change did not preserve order: %s", got)
	}
	if err := engine.SetSort("priority", domain.SortAsc); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("unknown field err = %v", err)
	}
}

func TestSortDoesNotRefetch(t *testing.T) {
	source := &fakeSource{byStatus: map[domain.StatusFilter][]domain.Ticket{domain.StatusFilterAll: manyTickets(3)}}
	engine := newLoadedEngine(t, source)
	if err := engine.SetSort(domain.SortByTitle, domain.SortAsc); err != nil {
		t.Fatalf("SetSort: %v", err)
	}
	if len(source.queries) != 1 {
		t.Errorf("queries = %d, want 1", len(source.queries))
	}
	if got := ids(engine.Sorted()); !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Errorf("sorted = %v", got)
	}
}

func TestFilterChangeRefetchesAndClampsPage(t *testing.T) {
	source := &fakeSource{byStatus: map[domain.StatusFilter][]domain.Ticket{
		domain.StatusFilterAll: manyTickets(12),
		"resolved":             manyTickets(2),
	}}
	engine := newLoadedEngine(t, source)
	engine.GoToPage(3)

	if err := engine.SetStatusFilter(context.Background(), "resolved"); err != nil {
		t.Fatalf("SetStatusFilter: %v", err)
	}
	page := engine.Snapshot()
	if page.Page != 1 || page.Total != 2 || len(page.Items) != 2 {
		t.Errorf("after shrink page = %+v", page)
	}
	if got := source.queries[len(source.queries)-1].Status; got != "resolved" {
		t.Errorf("last query status = %q", got)
	}
	if err := engine.SetStatusFilter(context.Background(), "closed"); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("unknown filter err = %v", err)
	}
}

func TestFailedFetchKeepsStaleTickets(t *testing.T) {
	source := &fakeSource{byStatus: map[domain.StatusFilter][]domain.Ticket{domain.StatusFilterAll: manyTickets(7)}}
	engine := newLoadedEngine(t, source)
	engine.NextPage()

	source.err = apperrors.NewServerRejected(500, "Failed to fetch tickets")
	err := engine.SetStatusFilter(context.Background(), "pending")
	if !apperrors.HasCode(err, apperrors.CodeServerRejected) {
		t.Fatalf("err = %v", err)
	}
	page := engine.Snapshot()
	if page.Total != 7 || page.Page != 2 || !page.Loaded {
		t.Errorf("stale view lost: %+v", page)
	}
	if apperrors.UserMessage(page.Err) != "Failed to fetch tickets" {
		t.Errorf("Err = %v", page.Err)
	}

	source.err = nil
	source.byStatus["pending"] = manyTickets(1)
	if err := engine.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if page := engine.Snapshot(); page.Err != nil || page.Total != 1 {
		t.Errorf("after recovery: %+v", page)
	}
}

// gatedSource blocks each call until released, so tests control arrival order.
type gatedSource struct {
	calls chan gatedCall
}

type gatedCall struct {
	query   domain.ListQuery
	release chan []domain.Ticket
}

func (g *gatedSource) ListTickets(ctx context.Context, query domain.ListQuery) ([]domain.Ticket, error) {
	call := gatedCall{query: query, release: make(chan []domain.Ticket)}
	g.calls <- call
	select {
	case tickets := <-call.release:
		return tickets, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSupersededResponseIsDiscarded(t *testing.T) {
	source := &gatedSource{calls: make(chan gatedCall)}
	engine := NewEngine(source)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() { firstDone <- engine.SetStatusFilter(ctx, "pending") }()
	first := <-source.calls

	secondDone := make(chan error, 1)
	go func() { secondDone <- engine.SetStatusFilter(ctx, "accepted") }()
	second := <-source.calls

	second.release <- []domain.Ticket{ticket("2", "accepted one", 0, 0)}
	if err := <-secondDone; err != nil {
		t.Fatalf("second: %v", err)
	}
	first.release <- []domain.Ticket{ticket("1", "pending one", 0, 0)}
	if err := <-firstDone; err != nil {
		t.Fatalf("first: %v", err)
	}

	page := engine.Snapshot()
	if got := ids(page.Items); !slices.Equal(got, []string{"2"}) {
		t.Errorf("items = %v, want the newer response only", got)
	}
	if page.Status != "accepted" || page.Loading {
		t.Errorf("page = %+v", page)
	}
}

func TestWithStateRestoresPageAfterLoad(t *testing.T) {
	source := &fakeSource{byStatus: map[domain.StatusFilter][]domain.Ticket{"pending": manyTickets(11)}}
	engine := NewEngine(source, WithState(State{
		Status: "pending",
		Sort:   domain.Sort{Field: domain.SortByTitle, Order: domain.SortAsc},
		Page:   3,
	}))
	if err := engine.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	page := engine.Snapshot()
	if page.Page != 3 || len(page.Items) != 1 || page.Items[0].ID != "11" {
		t.Errorf("restored page = %+v", page)
	}
}

func TestRefreshFailureBeforeFirstLoad(t *testing.T) {
	source := &fakeSource{err: errors.New("dial tcp: refused")}
	engine := NewEngine(source)
	if err := engine.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if page := engine.Snapshot(); page.Loaded || page.Err == nil {
		t.Errorf("page = %+v", page)
	}
}
