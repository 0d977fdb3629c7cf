package cargo

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the calendar date format the API accepts and returns.
	DateLayout = "2006-01-02"
	// TimestampLayout is the local timestamp format the API parses.
	TimestampLayout = "2006-01-02T15:04:05"
)

// Item mirrors an inventory item as returned by /api/items.
type Item struct {
	ItemID        string          `json:"itemId"`
	Name          string          `json:"name"`
	Width         int             `json:"width"`
	Depth         int             `json:"depth"`
	Height        int             `json:"height"`
	Mass          decimal.Decimal `json:"mass"`
	Priority      int             `json:"priority"`
	ExpiryDate    string          `json:"expiryDate,omitempty"`
	UsageLimit    *int            `json:"usageLimit,omitempty"`
	PreferredZone string          `json:"preferredZone"`
}

// Volume returns width × depth × height in cubic centimetres.
func (i Item) Volume() int {
	return i.Width * i.Depth * i.Height
}

// ItemInput is the body of POST /api/items.
type ItemInput struct {
	ItemID        string  `json:"itemId"`
	Name          string  `json:"name"`
	Width         int     `json:"width"`
	Depth         int     `json:"depth"`
	Height        int     `json:"height"`
	Mass          float64 `json:"mass"`
	Priority      int     `json:"priority"`
	ExpiryDate    string  `json:"expiryDate,omitempty"`
	UsageLimit    *int    `json:"usageLimit,omitempty"`
	PreferredZone string  `json:"preferredZone"`
}

// ItemListResponse mirrors /api/items.
type ItemListResponse struct {
	Items []Item `json:"items"`
}

// Container mirrors a storage container. It doubles as the create payload.
type Container struct {
	ContainerID string `json:"containerId"`
	Zone        string `json:"zone"`
	Width       int    `json:"width"`
	Depth       int    `json:"depth"`
	Height      int    `json:"height"`
}

// ContainerListResponse mirrors /api/containers.
type ContainerListResponse struct {
	Containers []Container `json:"containers"`
}

// Recommendation is a single placement candidate.
type Recommendation struct {
	ContainerID string `json:"containerId"`
	Zone        string `json:"zone"`
	Reason      string `json:"reason,omitempty"`
}

// PlacementResponse mirrors /api/placement/{itemId}.
type PlacementResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Message         string           `json:"message"`
}

// WasteItem is an item flagged for disposal.
type WasteItem struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Reason      string `json:"reason"`
	ContainerID string `json:"containerId,omitempty"`
}

// WasteListResponse mirrors /api/waste/identify.
type WasteListResponse struct {
	WasteItems []WasteItem `json:"wasteItems"`
}

// ReturnPlanRequest is the body of POST /api/waste/return-plan.
type ReturnPlanRequest struct {
	UndockingContainerID string  `json:"undockingContainerId"`
	UndockingDate        string  `json:"undockingDate"`
	MaxWeight            float64 `json:"maxWeight"`
}

// ReturnItem is a manifest entry.
type ReturnItem struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	ExpiryDate  string `json:"expiryDate,omitempty"`
	ContainerID string `json:"containerId,omitempty"`
}

// ReturnManifest aggregates the items chosen for return.
type ReturnManifest struct {
	UndockingContainerID string          `json:"undockingContainerId,omitempty"`
	UndockingDate        string          `json:"undockingDate,omitempty"`
	ReturnItems          []ReturnItem    `json:"returnItems"`
	TotalVolume          decimal.Decimal `json:"totalVolume"`
	TotalWeight          decimal.Decimal `json:"totalWeight"`
}

// RetrievalStep is one ordered action needed to reach a return item.
type RetrievalStep struct {
	Step     int    `json:"step"`
	Action   string `json:"action"`
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName"`
}

// ReturnPlanResponse mirrors /api/waste/return-plan.
type ReturnPlanResponse struct {
	ReturnManifest ReturnManifest  `json:"returnManifest"`
	RetrievalSteps []RetrievalStep `json:"retrievalSteps"`
}

// UndockingRequest is the body of POST /api/waste/complete-undocking.
type UndockingRequest struct {
	UndockingContainerID string `json:"undockingContainerId"`
	Timestamp            string `json:"timestamp"`
}

// UndockingResponse mirrors /api/waste/complete-undocking.
type UndockingResponse struct {
	ItemsRemoved int `json:"itemsRemoved"`
}

// ItemRef names an item by id.
type ItemRef struct {
	ItemID string `json:"itemId"`
}

// SimulationRequest is the body of POST /api/simulate/day. Exactly one of
// NumOfDays and ToTimestamp is set.
type SimulationRequest struct {
	NumOfDays           int       `json:"numOfDays,omitempty"`
	ToTimestamp         string    `json:"toTimestamp,omitempty"`
	ItemsToBeUsedPerDay []ItemRef `json:"itemsToBeUsedPerDay"`
}

// SimulatedItem is an item touched by a simulated day advance.
type SimulatedItem struct {
	ItemID        string `json:"itemId"`
	Name          string `json:"name"`
	RemainingUses *int   `json:"remainingUses,omitempty"`
	ExpiryDate    string `json:"expiryDate,omitempty"`
}

// SimulationChanges groups the effects of a day advance.
type SimulationChanges struct {
	ItemsUsed          []SimulatedItem `json:"itemsUsed"`
	ItemsExpired       []SimulatedItem `json:"itemsExpired"`
	ItemsDepletedToday []SimulatedItem `json:"itemsDepletedToday"`
}

// Empty reports whether the simulation changed nothing.
func (c SimulationChanges) Empty() bool {
	return len(c.ItemsUsed) == 0 && len(c.ItemsExpired) == 0 && len(c.ItemsDepletedToday) == 0
}

// SimulationResponse mirrors /api/simulate/day.
type SimulationResponse struct {
	NewDate string            `json:"newDate"`
	Changes SimulationChanges `json:"changes"`
}

// LogQuery filters /api/logs. Empty fields are omitted.
type LogQuery struct {
	StartDate  string
	EndDate    string
	ItemID     string
	UserID     string
	ActionType string
}

// LogEntry is one activity record.
type LogEntry struct {
	Timestamp  string          `json:"timestamp"`
	UserID     string          `json:"userId"`
	ActionType string          `json:"actionType"`
	ItemID     string          `json:"itemId"`
	Details    json.RawMessage `json:"details"`
}

// ParsedTime returns the timestamp as time.Time when possible.
func (e LogEntry) ParsedTime() time.Time {
	return parseTime(e.Timestamp)
}

// DetailsText renders Details as compact JSON.
func (e LogEntry) DetailsText() string {
	return compactJSON(e.Details)
}

// LogListResponse mirrors /api/logs.
type LogListResponse struct {
	Logs []LogEntry `json:"logs"`
}

// SortLogs orders entries chronologically. Unparseable timestamps sort last
// and keep their relative order.
func SortLogs(entries []LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].ParsedTime(), entries[j].ParsedTime()
		if ti.IsZero() || tj.IsZero() {
			return !ti.IsZero() && tj.IsZero()
		}
		return ti.Before(tj)
	})
}

// ImportKind selects the CSV import endpoint.
type ImportKind string

const (
	ImportItems      ImportKind = "items"
	ImportContainers ImportKind = "containers"
)

// ImportError describes a rejected CSV row. Row is whatever the server sent:
// a row number or the raw row object.
type ImportError struct {
	Row     json.RawMessage `json:"row"`
	Message string          `json:"message"`
}

// RowText renders Row as compact JSON.
func (e ImportError) RowText() string {
	return compactJSON(e.Row)
}

// ImportResponse mirrors /api/import/{kind}.
type ImportResponse struct {
	Success            bool          `json:"success"`
	ItemsImported      int           `json:"itemsImported"`
	ContainersImported int           `json:"containersImported"`
	Errors             []ImportError `json:"errors"`
	Detail             string        `json:"detail,omitempty"`
}

// Imported returns the number of accepted rows, whichever field carried it.
func (r ImportResponse) Imported() int {
	if r.ItemsImported > 0 {
		return r.ItemsImported
	}
	return r.ContainersImported
}

// RetrieveRequest is the body of POST /api/retrieve.
type RetrieveRequest struct {
	ItemID    string `json:"itemId"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// Status mirrors the generic {success} acknowledgement.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, TimestampLayout, "2006-01-02T15:04:05.999999", DateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
