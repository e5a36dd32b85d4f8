package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"ticket-bot/internal/model"
)

const (
	timestampLayout = "02.01.2006 15:04"
	statusColumn    = "H" // 8th column of the canonical header
	dataRange       = "A2:I"
	headerRange     = "A1:I1"
)

// SheetsStore keeps registrations in a Google Sheets worksheet.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logrus.Entry
}

// NewSheetsStore builds a store over the given spreadsheet using
// service-account credentials and ensures the header row is in place.
func NewSheetsStore(ctx context.Context, credentialsJSON []byte, spreadsheetID, sheetName string, log *logrus.Entry) (*SheetsStore, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	s := &SheetsStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           log,
	}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureHeader writes the canonical header into an empty sheet. An existing
// header that differs from the canonical schema is logged and left alone.
func (s *SheetsStore) ensureHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.rangeRef(headerRange)).
		Context(ctx).Do()
	if err != nil {
		return classify("read header", err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		header := make([]interface{}, len(model.Header))
		for i, col := range model.Header {
			header[i] = col
		}
		_, err := s.svc.Spreadsheets.Values.
			Update(s.spreadsheetID, s.rangeRef(headerRange), &sheets.ValueRange{Values: [][]interface{}{header}}).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			return classify("write header", err)
		}
		s.log.Info("wrote canonical header row")
		return nil
	}

	existing := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		existing = append(existing, strings.TrimSpace(fmt.Sprint(cell)))
	}
	if !headerMatches(existing) {
		s.log.WithField("header", strings.Join(existing, ", ")).
			Warn("sheet header differs from canonical schema, proceeding without migration")
	}
	return nil
}

func (s *SheetsStore) IsUserPaid(ctx context.Context, userID int64) (bool, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return false, err
	}
	id := strconv.FormatInt(userID, 10)
	for _, row := range rows {
		if cell(row.cells, 0) == id && row.reg.Status == model.StatusPaid {
			return true, nil
		}
	}
	return false, nil
}

func (s *SheetsStore) AppendPending(ctx context.Context, rec *model.Registration) (RowRef, error) {
	rec.Status = model.StatusPendingPayment
	resp, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rangeRef(dataRange), &sheets.ValueRange{Values: [][]interface{}{rowValues(rec)}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, classify("append row", err)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("append row: response carries no updated range")
	}
	ref, err := rowFromRange(resp.Updates.UpdatedRange)
	if err != nil {
		return 0, fmt.Errorf("append row: %w", err)
	}
	return ref, nil
}

func (s *SheetsStore) FindByPaymentID(ctx context.Context, paymentID string) (RowRef, *model.Registration, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return 0, nil, err
	}
	for _, row := range rows {
		if row.reg.PaymentID == paymentID {
			reg := row.reg
			return row.ref, &reg, nil
		}
	}
	return 0, nil, ErrNotFound
}

func (s *SheetsStore) SetStatus(ctx context.Context, ref RowRef, status model.Status) error {
	cellRef := s.rangeRef(fmt.Sprintf("%s%d", statusColumn, ref))
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, cellRef, &sheets.ValueRange{Values: [][]interface{}{{string(status)}}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return classify("update status", err)
	}
	return nil
}

func (s *SheetsStore) ListPending(ctx context.Context) ([]PendingRow, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return nil, err
	}
	var pending []PendingRow
	for _, row := range rows {
		if row.reg.Status == model.StatusPendingPayment {
			pending = append(pending, PendingRow{Ref: row.ref, Registration: row.reg})
		}
	}
	return pending, nil
}

type sheetRow struct {
	ref   RowRef
	cells []interface{}
	reg   model.Registration
}

func (s *SheetsStore) readRows(ctx context.Context) ([]sheetRow, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.rangeRef(dataRange)).
		Context(ctx).Do()
	if err != nil {
		return nil, classify("read rows", err)
	}
	rows := make([]sheetRow, 0, len(resp.Values))
	for i, cells := range resp.Values {
		ref := RowRef(i + 2) // data starts below the header row
		rows = append(rows, sheetRow{ref: ref, cells: cells, reg: parseRow(cells)})
	}
	return rows, nil
}

func (s *SheetsStore) rangeRef(ref string) string {
	return fmt.Sprintf("%s!%s", s.sheetName, ref)
}

func rowValues(rec *model.Registration) []interface{} {
	return []interface{}{
		strconv.FormatInt(rec.UserID, 10),
		rec.Username,
		rec.Name,
		rec.Phone,
		strconv.Itoa(rec.TicketCount),
		rec.Amount,
		rec.Timestamp.Format(timestampLayout),
		string(rec.Status),
		rec.PaymentID,
	}
}

// parseRow is tolerant of hand-edited cells: unparseable numbers become
// zero values and an unparseable timestamp stays the zero time.
func parseRow(cells []interface{}) model.Registration {
	userID, _ := strconv.ParseInt(cell(cells, 0), 10, 64)
	count, _ := strconv.Atoi(cell(cells, 4))
	ts, _ := time.ParseInLocation(timestampLayout, cell(cells, 6), time.Local)
	return model.Registration{
		UserID:      userID,
		Username:    cell(cells, 1),
		Name:        cell(cells, 2),
		Phone:       cell(cells, 3),
		TicketCount: count,
		Amount:      cell(cells, 5),
		Timestamp:   ts,
		Status:      model.Status(cell(cells, 7)),
		PaymentID:   cell(cells, 8),
	}
}

func cell(cells []interface{}, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cells[i]))
}

// rowFromRange extracts the row number from an updated range such as
// "Sheet1!A5:I5".
func rowFromRange(updatedRange string) (RowRef, error) {
	_, ref, ok := strings.Cut(updatedRange, "!")
	if !ok {
		return 0, fmt.Errorf("unexpected range %q", updatedRange)
	}
	start, _, _ := strings.Cut(ref, ":")
	i := 0
	for i < len(start) && (start[i] < '0' || start[i] > '9') {
		i++
	}
	row, err := strconv.Atoi(start[i:])
	if err != nil || row < 1 {
		return 0, fmt.Errorf("unexpected range %q", updatedRange)
	}
	return RowRef(row), nil
}

func headerMatches(existing []string) bool {
	if len(existing) != len(model.Header) {
		return false
	}
	for i, col := range model.Header {
		if existing[i] != col {
			return false
		}
	}
	return true
}

// classify separates "backend unreachable" from operation-specific API
// failures so the flow can tell the user to retry later.
func classify(op string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
