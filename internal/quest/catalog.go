package quest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Question is a single question behind a point. Multiple-choice questions carry
// Options plus the index of the correct one; free-text questions carry Expected.
type Question struct {
	Text     string   `json:"text"`
	Options  []string `json:"options,omitempty"`
	Answer   int      `json:"answer,omitempty"`
	Expected string   `json:"expected,omitempty"`
}

// IsChoice reports whether the question is multiple-choice.
func (q Question) IsChoice() bool {
	return len(q.Options) > 0
}

// Check reports whether the submitted answer is correct. For multiple-choice
// questions the answer is the option index as a decimal string; free-text
// answers are compared trimmed and case-folded.
func (q Question) Check(answer string) bool {
	answer = strings.TrimSpace(answer)
	if q.IsChoice() {
		var idx int
		if _, err := fmt.Sscanf(answer, "%d", &idx); err != nil {
			return false
		}
		return idx == q.Answer
	}
	return strings.EqualFold(answer, strings.TrimSpace(q.Expected))
}

// Point is a physical quest location: unlocked by a secret code, gated behind
// an ordered sequence of questions.
type Point struct {
	ID          int        `json:"pointId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Code        string     `json:"code"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	Questions   []Question `json:"questions"`
}

// MiniQuest is an ungated side-task awarding a flat bonus.
type MiniQuest struct {
	Task   string `json:"task"`
	Answer string `json:"answer"`
}

// Catalog is the immutable quest configuration, indexed at load time.
type Catalog struct {
	points map[int]Point
	order  []int
	mini   []MiniQuest
}

type catalogFile struct {
	Points     []Point     `json:"points"`
	MiniQuests []MiniQuest `json:"miniQuests"`
}

// New builds and validates a catalog from its raw parts.
func New(points []Point, mini []MiniQuest) (*Catalog, error) {
	c := &Catalog{points: make(map[int]Point, len(points)), mini: mini}
	for _, p := range points {
		if _, ok := c.points[p.ID]; ok {
			return nil, fmt.Errorf("duplicate point id %d", p.ID)
		}
		if strings.TrimSpace(p.Code) == "" {
			return nil, fmt.Errorf("point %d: empty code", p.ID)
		}
		for i, q := range p.Questions {
			if q.IsChoice() {
				if q.Answer < 0 || q.Answer >= len(q.Options) {
					return nil, fmt.Errorf("point %d question %d: answer index %d out of range", p.ID, i, q.Answer)
				}
			} else if strings.TrimSpace(q.Expected) == "" {
				return nil, fmt.Errorf("point %d question %d: neither options nor expected answer", p.ID, i)
			}
		}
		c.points[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// Load reads a catalog from a JSON file. An empty path returns the built-in
// demo catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Demo(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	c, err := New(f.Points, f.MiniQuests)
	if err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return c, nil
}

// Point returns the catalog entry for the given id.
func (c *Catalog) Point(id int) (Point, error) {
	p, ok := c.points[id]
	if !ok {
		return Point{}, fmt.Errorf("point %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// Question returns the question at the given index of a point.
func (c *Catalog) Question(pointID, index int) (Question, error) {
	p, err := c.Point(pointID)
	if err != nil {
		return Question{}, err
	}
	if index < 0 || index >= len(p.Questions) {
		return Question{}, fmt.Errorf("point %d question %d: %w", pointID, index, ErrNotFound)
	}
	return p.Questions[index], nil
}

// Points returns all points in catalog order.
func (c *Catalog) Points() []Point {
	out := make([]Point, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.points[id])
	}
	return out
}

// TotalPoints returns the number of points in the catalog.
func (c *Catalog) TotalPoints() int {
	return len(c.order)
}

// Available returns the points a team has not yet completed, in catalog order.
func (c *Catalog) Available(completed []int) []Point {
	done := make(map[int]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}
	var out []Point
	for _, id := range c.order {
		if !done[id] {
			out = append(out, c.points[id])
		}
	}
	return out
}

// MiniQuests returns all mini-quests.
func (c *Catalog) MiniQuests() []MiniQuest {
	return c.mini
}

// AvailableMiniQuests returns mini-quests whose task is not in completedTasks.
func (c *Catalog) AvailableMiniQuests(completedTasks []string) []MiniQuest {
	done := make(map[string]bool, len(completedTasks))
	for _, t := range completedTasks {
		done[t] = true
	}
	var out []MiniQuest
	for _, mq := range c.mini {
		if !done[mq.Task] {
			out = append(out, mq)
		}
	}
	return out
}

// MiniQuest looks up a mini-quest by its task text.
func (c *Catalog) MiniQuest(task string) (MiniQuest, error) {
	for _, mq := range c.mini {
		if mq.Task == task {
			return mq, nil
		}
	}
	return MiniQuest{}, fmt.Errorf("mini-quest %q: %w", task, ErrNotFound)
}

// NormalizeCode canonicalizes a point code for comparison: trimmed, lowercased,
// inner whitespace collapsed to single spaces.
func NormalizeCode(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Demo returns a small built-in catalog used when no catalog file is configured.
func Demo() *Catalog {
	c, err := New([]Point{
		{
			ID:          1,
			Name:        "Plaza Mayor",
			Description: "Head to the main square where Pizarro founded the city. Look for the bronze fountain in the center.",
			Code:        "fuente 1651",
			Lat:         -12.0464, Lng: -77.0300,
			Questions: []Question{
				{Text: "What year was the fountain in Plaza Mayor built?", Options: []string{"1535", "1651", "1821"}, Answer: 1},
				{Text: "What metal is the fountain made of?", Options: []string{"bronze", "iron", "silver"}, Answer: 0},
			},
		},
		{
			ID:          2,
			Name:        "Iglesia de San Francisco",
			Description: "Walk south to the yellow church with famous underground tunnels.",
			Code:        "san francisco",
			Lat:         -12.0463, Lng: -77.0275,
			Questions: []Question{
				{Text: "What are the underground tunnels beneath San Francisco called?", Expected: "catacombs"},
				{Text: "What colour is the church facade?", Options: []string{"white", "red", "yellow"}, Answer: 2},
			},
		},
		{
			ID:          3,
			Name:        "Jiron de la Union",
			Description: "Stroll down the most famous pedestrian street. Find the statue of the liberator.",
			Code:        "union 1821",
			Lat:         -12.0500, Lng: -77.0350,
			Questions: []Question{
				{Text: "Which liberator has a statue on Jiron de la Union?", Expected: "san martin"},
			},
		},
		{
			ID:          4,
			Name:        "Parque de la Muralla",
			Description: "Follow the old city wall to the park along the Rimac river.",
			Code:        "muralla",
			Lat:         -12.0450, Lng: -77.0260,
			Questions: []Question{
				{Text: "What century were the original city walls built in?", Options: []string{"16th", "17th", "18th"}, Answer: 1},
				{Text: "Which river runs along the park?", Expected: "rimac"},
			},
		},
	}, []MiniQuest{
		{Task: "Take a photo of your whole team jumping in front of a fountain and name the square you chose.", Answer: "plaza mayor"},
		{Task: "Find the year engraved above the cathedral entrance.", Answer: "1649"},
		{Task: "Count the balconies on the yellow colonial house facing the pedestrian street.", Answer: "6"},
	})
	if err != nil {
		panic(err)
	}
	return c
}
