package outbound

import (
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
)

// Batch is one outbound file: every line shares the run timestamp and carries
// a dense 1-based index matching its position in the file
type Batch struct {
	InDate   string
	Filename string
	Lines    []contracts.OutboundLine
}

// NewBatch indexes texts in order under one run timestamp
func NewBatch(filename string, at time.Time, texts []string) *Batch {
	inDate := at.Format(contracts.StampLayout)
	lines := make([]contracts.OutboundLine, 0, len(texts))
	for i, text := range texts {
		lines = append(lines, contracts.OutboundLine{
			InDate:       inDate,
			SendFilename: filename,
			Idx:          i + 1,
			Text:         text,
		})
	}
	return &Batch{InDate: inDate, Filename: filename, Lines: lines}
}

// Texts returns the line texts in index order
func (b *Batch) Texts() []string {
	texts := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		texts[i] = l.Text
	}
	return texts
}

// Len returns the number of lines
func (b *Batch) Len() int {
	return len(b.Lines)
}
