package challenge

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"text/tabwriter"
)

// NotGraded is how a submission without a grade is rendered in results
const NotGraded = "not graded"

// completionDetector fires once, either when every submission is graded or when forced by the expiry of the
// grading session. It is guarded by the lock of the session that owns it
type completionDetector struct {
	fired bool
}

// observe returns true the first time graded reaches target
func (d *completionDetector) observe(graded int, target int) bool {
	if d.fired || graded != target {
		return false
	}

	d.fired = true
	return true
}

// force returns true if the detector hadn't fired yet
func (d *completionDetector) force() bool {
	if d.fired {
		return false
	}

	d.fired = true
	return true
}

// ResultRow is one participant's line in a challenge result. Grade is nil when the submission wasn't graded
type ResultRow struct {
	Participant Participant
	Grade       *Grade
}

// Score renders the row's score
func (r ResultRow) Score() string {
	if r.Grade == nil {
		return NotGraded
	}

	return r.Grade.Score.String()
}

// Result is the aggregate outcome of a challenge
type Result struct {
	ChallengeID string
	Prompt      string
	Rows        []ResultRow

	// Partial is true when grading expired before every submission got a grade
	Partial bool
}

// buildResult assembles the rows in submission order
func buildResult(c *Challenge, order []Participant, grades map[string]Grade, partial bool) (r *Result) {
	r = new(Result)
	r.ChallengeID = c.ID
	r.Prompt = c.Prompt
	r.Partial = partial
	r.Rows = make([]ResultRow, 0, len(order))

	for _, p := range order {
		row := ResultRow{Participant: p}
		if g, ok := grades[p.ID]; ok {
			g := g
			row.Grade = &g
		}

		r.Rows = append(r.Rows, row)
	}

	return r
}

// CSV renders the result as a csv document with a header and one row per participant
func (r *Result) CSV() (content []byte, err error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)

	if err = w.Write([]string{"Username", "Score"}); err != nil {
		return nil, err
	}

	for _, row := range r.Rows {
		if err = w.Write([]string{row.Participant.Name, row.Score()}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err = w.Error(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Table renders the result as a fixed-width text table wrapped in a code block
func (r *Result) Table() string {
	if len(r.Rows) == 0 {
		return "No submissions were received."
	}

	var b bytes.Buffer
	b.WriteString("```")
	w := new(tabwriter.Writer)
	bufw := bufio.NewWriter(&b)
	w.Init(bufw, 5, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Participant\tScore\n")
	for _, row := range r.Rows {
		fmt.Fprintf(w, "%s\t%s\n", row.Participant.Name, row.Score())
	}
	w.Flush()
	bufw.Flush()
	b.WriteString("```")

	return b.String()
}
