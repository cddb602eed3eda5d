// Package messages holds the tea.Msg types the views exchange with the app.
// Service results carry their error instead of a separate failure message.
package messages

import (
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// ViewType identifies a screen.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewAsk
	ViewDocuments
	ViewDocDetails
	ViewStats
	ViewHelp
)

var viewNames = [...]string{
	ViewMenu:       "menu",
	ViewAsk:        "ask",
	ViewDocuments:  "documents",
	ViewDocDetails: "doc_details",
	ViewStats:      "stats",
	ViewHelp:       "help",
}

// String returns the view name, or "unknown".
func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to switch screens.
type ViewChanged struct {
	View ViewType
}

// Quit asks the app to exit.
type Quit struct{}

// ErrorOccurred reports a failure outside any service call.
type ErrorOccurred struct {
	Err error
}

// QuestionAsked is emitted by the question input on submit.
type QuestionAsked struct {
	Question string
	DocType  domain.DocumentType
}

// AnswerReceived carries the result of an asked question.
type AnswerReceived struct {
	Result *domain.QueryResult
	Err    error
}

// DocumentsLoaded carries the document list for the documents view.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected opens the details view for Document.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentDetailsLoaded carries a document and its entities for the details view.
type DocumentDetailsLoaded struct {
	Document domain.Document
	Summary  *domain.EntitySummary
	Entities []domain.Entity
	Err      error
}

// DocumentDeleted reports the outcome of a delete; Err is nil on success.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// StatsLoaded carries both halves of the statistics screen. Corpus is nil
// when no document service is wired.
type StatsLoaded struct {
	Index  *domain.IndexStats
	Corpus *domain.CorpusStatistics
	Err    error
}
