package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
)

var (
	studioLTokenRe     = regexp.MustCompile(`name="_token" value="([^"]+)"`)
	studioLResourcesRe = regexp.MustCompile(`(?s)resources:\s*\[(.*?)\]`)
	studioLRoomPairRe  = regexp.MustCompile(`\{\s*id:\s*['"](\d+)['"]\s*,\s*title:\s*['"]([^'"]+)['"]\s*\}`)
)

// StudioL scrapes the studi-ol.com chain. The shop page embeds a CSRF token
// and a room id/name map; the schedule endpoint then returns JSON entries of
// free 30-minute granules. Rooms book on the hour or half hour.
type StudioL struct {
	baseURL   string
	client    *scrape.Client
	token     string
	shopID    string
	roomNames map[string]string
}

// NewStudioL creates the connector with its own fetch client.
func NewStudioL(cfg scrape.FetchConfig) (*StudioL, error) {
	return &StudioL{
		baseURL: "https://studi-ol.com",
		client:  scrape.NewClient(cfg),
	}, nil
}

// Name implements scrape.Strategy.
func (s *StudioL) Name() string { return "studiol" }

// EstablishConnection loads the shop page and captures the CSRF token plus
// the room name map.
func (s *StudioL) EstablishConnection(ctx context.Context, shopID string) error {
	if shopID == "" {
		return fmt.Errorf("%w: studiol requires a shop id", scrape.ErrConnection)
	}

	body, err := s.client.Get(ctx, fmt.Sprintf("%s/shop/%s", s.baseURL, shopID), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", scrape.ErrConnection, err)
	}
	page := string(body)
	if strings.TrimSpace(page) == "" {
		return fmt.Errorf("%w: shop page is empty", scrape.ErrConnection)
	}

	token := extractToken(page)
	if token == "" {
		return fmt.Errorf("%w: no _token on shop page", scrape.ErrAuthentication)
	}

	s.token = token
	s.shopID = shopID
	s.roomNames = extractRoomNames(page)
	return nil
}

// FetchAvailableTimes fetches the schedule JSON and converts every free
// granule to a raw 30-minute slot.
func (s *StudioL) FetchAvailableTimes(ctx context.Context, date time.Time) ([]model.RoomAvailability, error) {
	if s.token == "" || s.shopID == "" {
		return nil, fmt.Errorf("%w: connection not established", scrape.ErrConnection)
	}

	dateStr := date.Format("2006-01-02")
	form := url.Values{
		"_token":  {s.token},
		"shop_id": {s.shopID},
		"start":   {dateStr + " 00:00:00"},
		"end":     {dateStr + " 23:30:00"},
	}

	body, err := s.client.PostForm(ctx, s.baseURL+"/get_schedule_shop", nil, form)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, fmt.Errorf("%w: schedule response is empty", scrape.ErrParse)
	}

	var entries []struct {
		RoomID json.Number `json:"roomId"`
		Start  string      `json:"start"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: schedule JSON: %v", scrape.ErrParse, err)
	}

	granules := make(map[string][]model.TimeSlot)
	var order []string
	for _, entry := range entries {
		start, err := parseScheduleStart(entry.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: entry start %q: %v", scrape.ErrParse, entry.Start, err)
		}

		roomID := entry.RoomID.String()
		roomName, ok := s.roomNames[roomID]
		if !ok {
			roomName = "Room " + roomID
		}

		slot, err := granuleSlot(start, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("%w: entry start %q: %v", scrape.ErrParse, entry.Start, err)
		}
		if _, seen := granules[roomName]; !seen {
			order = append(order, roomName)
		}
		granules[roomName] = append(granules[roomName], slot)
	}

	var rooms []model.RoomAvailability
	for _, roomName := range order {
		room, err := model.NewRoomAvailability(roomName, date, granules[roomName], []int{0, 30}, true)
		if err != nil {
			return nil, fmt.Errorf("%w: room %q: %v", scrape.ErrParse, roomName, err)
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func extractToken(page string) string {
	if m := studioLTokenRe.FindStringSubmatch(page); m != nil {
		return m[1]
	}
	return ""
}

func extractRoomNames(page string) map[string]string {
	names := make(map[string]string)
	if m := studioLResourcesRe.FindStringSubmatch(page); m != nil {
		for _, pair := range studioLRoomPairRe.FindAllStringSubmatch(m[1], -1) {
			names[pair[1]] = pair[2]
		}
	}
	return names
}

// parseScheduleStart accepts the two timestamp layouts the source emits.
func parseScheduleStart(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp layout")
}

// granuleSlot builds a raw slot of the given length starting at t. A granule
// ending at midnight gets the 00:00 end sentinel.
func granuleSlot(t time.Time, length time.Duration) (model.TimeSlot, error) {
	end := t.Add(length)
	return model.NewTimeSlot(
		model.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()},
		model.TimeOfDay{Hour: end.Hour(), Minute: end.Minute()},
	)
}
