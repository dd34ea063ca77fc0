package connector

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
)

// PadStudio scrapes the PADstudio reservation system. The source renders one
// HTML table per day: the first row holds "HH:MM ~ HH:MM" column headers and
// each following row is a room, with bookable cells carrying a checkbox.
// Rooms always book on the hour.
type PadStudio struct {
	baseURL string
	client  *scrape.Client
}

// NewPadStudio creates the connector with its own fetch client.
func NewPadStudio(cfg scrape.FetchConfig) (*PadStudio, error) {
	return &PadStudio{
		baseURL: "https://www.reserve1.jp/studio/member",
		client:  scrape.NewClient(cfg),
	}, nil
}

// Name implements scrape.Strategy.
func (p *PadStudio) Name() string { return "pad_studio" }

// EstablishConnection initializes the visitor session. The session cookie is
// captured by the fetch client's jar.
func (p *PadStudio) EstablishConnection(ctx context.Context, shopID string) error {
	loginURL := fmt.Sprintf("%s/VisitorLogin.php?lc=olsccsvld&mn=3&gr=1", p.baseURL)
	body, err := p.client.Get(ctx, loginURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", scrape.ErrConnection, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: login page is empty", scrape.ErrConnection)
	}
	return nil
}

// FetchAvailableTimes fetches and parses the schedule table for the date.
func (p *PadStudio) FetchAvailableTimes(ctx context.Context, date time.Time) ([]model.RoomAvailability, error) {
	dateStr := date.Format("2006-01-02")
	form := url.Values{
		"grand":         {"1"},
		"Ym_select":     {strings.ReplaceAll(dateStr[:7], "-", "")},
		"office":        {"1480320"},
		"mngfg":         {"4"},
		"rdate":         {dateStr},
		"member_select": {"3"},
		"month_btn":     {""},
		"day_btn":       {dateStr},
	}

	body, err := p.client.PostForm(ctx, p.baseURL+"/member_select.php", nil, form)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: schedule page is empty", scrape.ErrParse)
	}
	return p.parseSchedule(body, date)
}

func (p *PadStudio) parseSchedule(body []byte, date time.Time) ([]model.RoomAvailability, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scrape.ErrParse, err)
	}

	table := doc.Find(`form[name="form1"] table.table_base`).First()
	if table.Length() == 0 {
		return nil, nil
	}

	headers := parseHeaderSlots(table)

	var rooms []model.RoomAvailability
	var parseErr error
	table.Find("tr").Slice(1, goquery.ToEnd).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}
		roomName := strings.TrimSpace(cells.First().Text())
		if roomName == "" {
			return true
		}

		slots := availableSlots(cells, headers)
		if len(slots) == 0 {
			return true
		}

		room, err := model.NewRoomAvailability(roomName, date, slots, []int{0}, false)
		if err != nil {
			parseErr = fmt.Errorf("%w: room %q: %v", scrape.ErrParse, roomName, err)
			return false
		}
		rooms = append(rooms, room)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return rooms, nil
}

// parseHeaderSlots extracts the (start, end) header pairs from the first row.
func parseHeaderSlots(table *goquery.Selection) []model.TimeSlot {
	var headers []model.TimeSlot
	table.Find("tr").First().Find("td.item_base").Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		if !strings.Contains(text, "~") {
			return
		}
		parts := strings.SplitN(text, "~", 2)
		start, err := model.ParseTimeOfDay(normalizeTime(parts[0]))
		if err != nil {
			return
		}
		end, err := model.ParseTimeOfDay(normalizeTime(parts[1]))
		if err != nil {
			return
		}
		slot, err := model.NewTimeSlot(start, end)
		if err != nil {
			return
		}
		headers = append(headers, slot)
	})
	return headers
}

// availableSlots walks a room row, tracking the header index via colspan,
// and keeps the slots whose cell is bookable.
func availableSlots(cells *goquery.Selection, headers []model.TimeSlot) []model.TimeSlot {
	var slots []model.TimeSlot
	headerIndex := 0

	cells.Slice(1, cells.Length()-1).Each(func(_ int, cell *goquery.Selection) {
		colspan := 1
		if v, ok := cell.Attr("colspan"); ok {
			if n, err := parsePositiveInt(v); err == nil {
				colspan = n
			}
		}

		if isBookableCell(cell) && headerIndex < len(headers) {
			slots = append(slots, headers[headerIndex])
		}
		headerIndex += colspan
	})
	return slots
}

func isBookableCell(cell *goquery.Selection) bool {
	if !cell.HasClass("koma") || cell.HasClass("koma_03_x") || cell.HasClass("koma_01_x") {
		return false
	}
	return cell.Find(`input[type="checkbox"][name="c_v[]"]`).Length() > 0
}

// normalizeTime maps full-width colons from the source markup to ASCII.
func normalizeTime(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "：", ":"))
}

func parsePositiveInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("non-positive colspan %d", n)
	}
	return n, nil
}
