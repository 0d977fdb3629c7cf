package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultBaseURL {
		t.Fatalf("base = %q, want %q", u.String(), DefaultBaseURL)
	}

	u, err = parseBaseURL("cargo.local:9000/ignored?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "cargo.local:9000" {
		t.Fatalf("url = %q, want http://cargo.local:9000", u.String())
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestClient_ListItemsEncodesQueryAndHeaders(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotRequestID, gotAccept string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		_, _ = io.WriteString(w, `{"items":[{"itemId":"I1","name":"Widget","width":1,"depth":2,"height":3,"mass":1.25,"priority":4,"preferredZone":"Lab"}]}`)
	})

	items, err := c.ListItems(testContext(t), "  wid ")
	if err != nil {
		t.Fatalf("ListItems returned error: %v", err)
	}
	want := []Item{{
		ItemID: "I1", Name: "Widget", Width: 1, Depth: 2, Height: 3,
		Mass: decimal.RequireFromString("1.25"), Priority: 4, PreferredZone: "Lab",
	}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	if gotQuery.Get("query") != "wid" {
		t.Fatalf("query = %q, want wid", gotQuery.Get("query"))
	}
	if gotRequestID == "" {
		t.Fatal("X-Request-ID header missing")
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q", gotAccept)
	}
	if items[0].Volume() != 6 {
		t.Fatalf("Volume = %d, want 6", items[0].Volume())
	}
}

func TestClient_GetItemAcceptsWrappedAndBare(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/items/I1":
			_, _ = io.WriteString(w, `{"item":{"itemId":"I1","name":"Widget"}}`)
		case "/api/items/I2":
			_, _ = io.WriteString(w, `{"itemId":"I2","name":"Bolt"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Item not found"}`)
		}
	})
	ctx := testContext(t)

	item, err := c.GetItem(ctx, "I1")
	if err != nil || item.Name != "Widget" {
		t.Fatalf("GetItem(I1) = %#v, %v", item, err)
	}
	item, err = c.GetItem(ctx, "I2")
	if err != nil || item.Name != "Bolt" {
		t.Fatalf("GetItem(I2) = %#v, %v", item, err)
	}

	_, err = c.GetItem(ctx, "XYZ")
	if !IsNotFound(err) {
		t.Fatalf("GetItem(XYZ) error = %v, want not found", err)
	}
	if err.Error() != "Item not found" {
		t.Fatalf("message = %q, want detail text", err.Error())
	}
}

func TestClient_ErrorDetailVariants(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", http.StatusBadRequest, `{"detail":"Container exists"}`, "Container exists"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","width"],"msg":"value is not a valid integer"}]}`, "width: value is not a valid integer"},
		{"message field", http.StatusInternalServerError, `{"message":"boom"}`, "boom"},
		{"not json", http.StatusBadGateway, `<html>`, "request failed with status 502 (Bad Gateway)"},
		{"empty", http.StatusServiceUnavailable, ``, "request failed with status 503 (Service Unavailable)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.ListContainers(testContext(t))
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error = %v, want *RequestError", err)
			}
			if reqErr.Status != tt.status {
				t.Fatalf("status = %d, want %d", reqErr.Status, tt.status)
			}
			if reqErr.Message != tt.want {
				t.Fatalf("message = %q, want %q", reqErr.Message, tt.want)
			}
		})
	}
}

func TestClient_NetworkFailureIsRequestError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	c, err := NewClient(base)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.ListContainers(testContext(t))
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if reqErr.Status != 0 || reqErr.Err == nil {
		t.Fatalf("RequestError = %#v, want transport failure", reqErr)
	}
}

func TestClient_MalformedBodyIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"wasteItems": [`)
	})
	_, err := c.IdentifyWaste(testContext(t))
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if decErr.Path != "/api/waste/identify" {
		t.Fatalf("path = %q", decErr.Path)
	}
}

func TestClient_PostBodies(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	bodies := map[string]json.RawMessage{}
	body := func(key string) json.RawMessage {
		mu.Lock()
		defer mu.Unlock()
		return bodies[key]
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies[r.Method+" "+r.URL.Path] = raw
		mu.Unlock()
		switch r.URL.Path {
		case "/api/simulate/day":
			_, _ = io.WriteString(w, `{"newDate":"2025-01-02","changes":{"itemsUsed":[{"itemId":"I1","name":"Widget","remainingUses":2}],"itemsExpired":[],"itemsDepletedToday":[]}}`)
		case "/api/waste/return-plan":
			_, _ = io.WriteString(w, `{"returnManifest":{"returnItems":[{"itemId":"I9","name":"Old"}],"totalVolume":12,"totalWeight":3.5},"retrievalSteps":[{"step":1,"action":"remove","itemId":"I9","itemName":"Old"}]}`)
		case "/api/waste/complete-undocking":
			_, _ = io.WriteString(w, `{"success":true,"itemsRemoved":4}`)
		default:
			_, _ = io.WriteString(w, `{"success":true}`)
		}
	})
	ctx := testContext(t)

	sim, err := c.Simulate(ctx, SimulationRequest{NumOfDays: 1, ItemsToBeUsedPerDay: []ItemRef{{ItemID: "I1"}}})
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if sim.NewDate != "2025-01-02" || len(sim.Changes.ItemsUsed) != 1 || *sim.Changes.ItemsUsed[0].RemainingUses != 2 {
		t.Fatalf("Simulate = %#v", sim)
	}
	assertJSON(t, body("POST /api/simulate/day"), `{"numOfDays":1,"itemsToBeUsedPerDay":[{"itemId":"I1"}]}`)

	if _, err := c.Simulate(ctx, SimulationRequest{ToTimestamp: "2025-03-01T00:00:00"}); err != nil {
		t.Fatalf("Simulate(toTimestamp) returned error: %v", err)
	}
	assertJSON(t, body("POST /api/simulate/day"), `{"toTimestamp":"2025-03-01T00:00:00","itemsToBeUsedPerDay":[]}`)

	plan, err := c.ReturnPlan(ctx, ReturnPlanRequest{UndockingContainerID: "C1", UndockingDate: "2025-02-01", MaxWeight: 100})
	if err != nil {
		t.Fatalf("ReturnPlan returned error: %v", err)
	}
	if !plan.ReturnManifest.TotalWeight.Equal(decimal.RequireFromString("3.5")) || len(plan.RetrievalSteps) != 1 {
		t.Fatalf("ReturnPlan = %#v", plan)
	}
	assertJSON(t, body("POST /api/waste/return-plan"), `{"undockingContainerId":"C1","undockingDate":"2025-02-01","maxWeight":100}`)

	undock, err := c.CompleteUndocking(ctx, UndockingRequest{UndockingContainerID: "C1", Timestamp: "2025-02-01T10:00:00"})
	if err != nil || undock.ItemsRemoved != 4 {
		t.Fatalf("CompleteUndocking = %#v, %v", undock, err)
	}

	if err := c.CreateContainers(ctx, []Container{{ContainerID: "C1", Zone: "Lab", Width: 10, Depth: 10, Height: 10}}); err != nil {
		t.Fatalf("CreateContainers returned error: %v", err)
	}
	assertJSON(t, body("POST /api/containers"), `[{"containerId":"C1","zone":"Lab","width":10,"depth":10,"height":10}]`)

	if err := c.Retrieve(ctx, RetrieveRequest{ItemID: "I1", UserID: "astronaut1", Timestamp: "2025-01-01T00:00:00"}); err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	assertJSON(t, body("POST /api/retrieve"), `{"itemId":"I1","userId":"astronaut1","timestamp":"2025-01-01T00:00:00"}`)

	if err := c.DeleteContainer(ctx, "C 1"); err != nil {
		t.Fatalf("DeleteContainer returned error: %v", err)
	}
	mu.Lock()
	_, ok := bodies["DELETE /api/containers/C 1"]
	mu.Unlock()
	if !ok {
		t.Fatal("delete path for \"C 1\" not seen")
	}
}

func TestClient_PlacementAndLogsQueries(t *testing.T) {
	t.Parallel()

	var placementQuery, logsQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/placement/"):
			placementQuery = r.URL.Query()
			_, _ = io.WriteString(w, `{"recommendations":[{"containerId":"C1","zone":"Lab"},{"containerId":"C2","zone":"Crew"}]}`)
		case r.URL.Path == "/api/logs":
			logsQuery = r.URL.Query()
			_, _ = io.WriteString(w, `{"logs":[{"timestamp":"2025-01-02T00:00:00","userId":"u","actionType":"placement","itemId":"I1","details":{"to":"C1"}}]}`)
		}
	})
	ctx := testContext(t)

	rec, err := c.Placement(ctx, "I1", "C9")
	if err != nil {
		t.Fatalf("Placement returned error: %v", err)
	}
	if len(rec.Recommendations) != 2 || rec.Recommendations[1].ContainerID != "C2" {
		t.Fatalf("Placement = %#v", rec)
	}
	if placementQuery.Get("containerId") != "C9" {
		t.Fatalf("containerId = %q", placementQuery.Get("containerId"))
	}

	logs, err := c.Logs(ctx, LogQuery{StartDate: "2025-01-01", ItemID: "I1", ActionType: "placement"})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	want := url.Values{"startDate": {"2025-01-01"}, "itemId": {"I1"}, "actionType": {"placement"}}
	if diff := cmp.Diff(want, logsQuery); diff != "" {
		t.Fatalf("logs query mismatch (-want +got):\n%s", diff)
	}
	if logs[0].DetailsText() != `{"to":"C1"}` {
		t.Fatalf("DetailsText = %q", logs[0].DetailsText())
	}
}

func TestClient_ImportSendsMultipartFile(t *testing.T) {
	t.Parallel()

	var gotName, gotContent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/import/containers" {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		gotName, gotContent = header.Filename, string(raw)
		_, _ = io.WriteString(w, `{"success":true,"containersImported":2,"errors":[{"row":{"containerId":"C3"},"message":"bad zone"}]}`)
	})

	resp, err := c.Import(testContext(t), ImportContainers, "/tmp/in/containers.csv", strings.NewReader("containerId,zone\nC1,Lab\n"))
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if gotName != "containers.csv" || !strings.HasPrefix(gotContent, "containerId,zone") {
		t.Fatalf("upload = %q %q", gotName, gotContent)
	}
	if resp.Imported() != 2 || len(resp.Errors) != 1 {
		t.Fatalf("Import = %#v", resp)
	}
	if resp.Errors[0].RowText() != `{"containerId":"C3"}` {
		t.Fatalf("RowText = %q", resp.Errors[0].RowText())
	}

	if _, err := c.Import(testContext(t), ImportKind("bogus"), "x.csv", strings.NewReader("")); err == nil {
		t.Fatal("expected error for unknown import kind")
	}
}

func TestClient_ExportStreamsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "Item ID,Container ID\nI1,C1\n")
	})
	var buf bytes.Buffer
	n, err := c.ExportArrangement(testContext(t), &buf)
	if err != nil {
		t.Fatalf("ExportArrangement returned error: %v", err)
	}
	if n != int64(buf.Len()) || !strings.Contains(buf.String(), "I1,C1") {
		t.Fatalf("export = %d %q", n, buf.String())
	}
}

type recordingCollector struct {
	routes []string
	status []int
}

func (r *recordingCollector) ObserveRequest(method, route string, status int, _ time.Duration) {
	r.routes = append(r.routes, method+" "+route)
	r.status = append(r.status, status)
}

func TestClient_ObservesRouteTemplates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}))
	t.Cleanup(server.Close)

	col := &recordingCollector{}
	c, err := NewClient(server.URL, WithCollector(col))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := testContext(t)
	if msg, err := c.Ping(ctx); err != nil || msg != "ok" {
		t.Fatalf("Ping = %q, %v", msg, err)
	}
	_ = c.DeleteItem(ctx, "I42")

	want := []string{"GET /", "DELETE /api/items/{id}"}
	if diff := cmp.Diff(want, col.routes); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
	if col.status[1] != http.StatusNotFound {
		t.Fatalf("status = %v", col.status)
	}
}

func TestSortLogs_ChronologicalWithUnparseableLast(t *testing.T) {
	entries := []LogEntry{
		{Timestamp: "garbage", ItemID: "x"},
		{Timestamp: "2025-01-03T00:00:00", ItemID: "c"},
		{Timestamp: "2025-01-01T08:00:00Z", ItemID: "a"},
		{Timestamp: "2025-01-02", ItemID: "b"},
	}
	SortLogs(entries)
	var got []string
	for _, e := range entries {
		got = append(got, e.ItemID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "x"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func assertJSON(t *testing.T, got json.RawMessage, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("body %q is not JSON: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("want %q is not JSON: %v", want, err)
	}
	if diff := cmp.Diff(w, g); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}
