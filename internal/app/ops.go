package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"herald/internal/contact"
	"herald/internal/dispatch"
	"herald/internal/group"
	"herald/internal/schedule"
	"herald/internal/storage"
	logx "herald/pkg/logx"
)

// ErrNoRecipients is returned when a run would start with nobody to reach.
var ErrNoRecipients = errors.New("no recipients selected")

// ImportFormat selects a contact file parser. Empty means detect from the
// file extension.
type ImportFormat string

const (
	FormatAuto      ImportFormat = ""
	FormatPlain     ImportFormat = "txt"
	FormatDelimited ImportFormat = "csv"
	FormatCards     ImportFormat = "vcf"
)

// Import parses a contact file, registers the collection under the file's
// base name, and makes it the active source. An import that yields zero
// contacts is rejected and leaves the registry untouched.
func (a *App) Import(path string, format ImportFormat) (contact.Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return contact.Collection{}, err
	}

	if format == FormatAuto {
		format = detectFormat(path)
	}
	cc := a.Config().CountryCode

	var recs []contact.Record
	switch format {
	case FormatPlain:
		recs = contact.ParsePlain(string(b), cc)
	case FormatDelimited:
		recs = contact.ParseDelimited(string(b), cc)
	case FormatCards:
		recs = contact.ParseCards(string(b), cc)
	default:
		return contact.Collection{}, fmt.Errorf("unknown contact format %q", format)
	}
	if len(recs) == 0 {
		return contact.Collection{}, fmt.Errorf("no valid contacts in %s", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	col := contact.Collection{Origin: contact.OriginImported, Records: recs}
	a.registry.Set(name, col)
	if err := a.registry.SetActive(name); err != nil {
		return contact.Collection{}, err
	}
	a.log.Info("contacts imported",
		logx.String("source", name), logx.String("format", string(format)), logx.Int("contacts", len(recs)))
	return a.registry.Active(), nil
}

func detectFormat(path string) ImportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatDelimited
	case ".vcf", ".vcard":
		return FormatCards
	default:
		return FormatPlain
	}
}

// Select resolves the recipient window for a run. batchSize 0 selects the
// whole active collection.
func (a *App) Select(batchSize, startBatch int) ([]contact.Record, string, error) {
	col := a.registry.Active()
	source := a.registry.ActiveName()
	if col.Len() == 0 {
		return nil, source, fmt.Errorf("%w: source %q is empty", ErrNoRecipients, source)
	}
	if batchSize <= 0 {
		return col.Records, source, nil
	}
	batch, err := contact.Partition(col, batchSize, startBatch)
	if err != nil {
		return nil, source, err
	}
	if batch.Empty() {
		return nil, source, fmt.Errorf("%w: batch %d is past the end of %q (%d contacts)",
			ErrNoRecipients, startBatch, source, col.Len())
	}
	return batch.Items, source, nil
}

// SendBulk dispatches message to the selected window of the active
// collection and records the run.
func (a *App) SendBulk(ctx context.Context, message string, batchSize, startBatch int) (dispatch.Summary, error) {
	if strings.TrimSpace(message) == "" {
		message = a.Config().Messages.Bulk
	}
	if strings.TrimSpace(message) == "" {
		return dispatch.Summary{}, errors.New("message is empty and messages.bulk is not set")
	}
	recipients, source, err := a.Select(batchSize, startBatch)
	if err != nil {
		return dispatch.Summary{}, err
	}

	sum, runErr := a.disp.Dispatch(ctx, recipients, message)
	a.recordSend(source, sum)
	return sum, runErr
}

// GroupRun adds the selected recipients to groupName (empty: the config
// default group) and records the run.
func (a *App) GroupRun(ctx context.Context, groupName string, batchSize, startBatch int) (group.Summary, error) {
	if strings.TrimSpace(groupName) == "" {
		groupName = a.Config().GroupName
	}
	recipients, source, err := a.Select(batchSize, startBatch)
	if err != nil {
		return group.Summary{}, err
	}

	sum, runErr := a.groups.Run(ctx, groupName, recipients)
	a.recordGroup(source, groupName, sum)
	return sum, runErr
}

// RecentRuns returns the newest stored run entries.
func (a *App) RecentRuns(ctx context.Context, limit int) ([]storage.RunEntry, error) {
	if a.store == nil {
		return nil, storage.ErrDisabled
	}
	return a.store.Recent(ctx, limit)
}

// runCampaign is the scheduler callback: one unattended bulk send against
// the campaign's window of the active collection.
func (a *App) runCampaign(ctx context.Context, c schedule.Campaign) error {
	message := c.Message
	if strings.TrimSpace(message) == "" {
		message = a.Config().Messages.Bulk
	}
	recipients, source, err := a.Select(c.BatchSize, c.StartBatch)
	if err != nil {
		return err
	}

	sum, runErr := a.disp.Dispatch(ctx, recipients, message)
	a.recordSend(source+"/campaign:"+c.Name, sum)
	return runErr
}

// runMeta is the compact failure detail persisted with a run entry.
type runMeta struct {
	Failures []runFailure `json:"failures,omitempty"`
}

type runFailure struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

func (a *App) recordSend(source string, sum dispatch.Summary) {
	if a.store == nil {
		return
	}
	meta := runMeta{}
	for _, o := range sum.Outcomes {
		if o.Status == dispatch.StatusFailed {
			meta.Failures = append(meta.Failures, runFailure{Name: o.Contact.Name, Error: o.Error})
		}
	}
	a.appendRun(storage.RunEntry{
		At:      sum.StartedAt,
		RunID:   sum.RunID,
		Kind:    "send",
		Source:  source,
		Total:   sum.Total,
		Sent:    sum.Sent,
		Failed:  sum.Failed,
		Skipped: sum.Skipped,
		TookMS:  sum.Took.Milliseconds(),
	}, meta)
}

func (a *App) recordGroup(source, groupName string, sum group.Summary) {
	if a.store == nil {
		return
	}
	meta := runMeta{}
	for _, o := range sum.Outcomes {
		if o.Status == group.StatusFailed {
			meta.Failures = append(meta.Failures, runFailure{Name: o.Contact.Name, Error: o.Error})
		}
	}
	a.appendRun(storage.RunEntry{
		At:        sum.StartedAt,
		RunID:     sum.RunID,
		Kind:      "group",
		Source:    source,
		GroupName: groupName,
		Total:     sum.Total,
		Added:     sum.Added,
		Invited:   sum.Invited,
		Failed:    sum.Failed,
		Skipped:   sum.Skipped,
		TookMS:    sum.Took.Milliseconds(),
	}, meta)
}

func (a *App) appendRun(e storage.RunEntry, meta runMeta) {
	if len(meta.Failures) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			e.MetaJSON = string(b)
		}
	}
	// Run recording is best-effort; the run itself already happened.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.AppendRun(ctx, e); err != nil {
		a.log.Warn("run entry not stored", logx.String("run", e.RunID), logx.Err(err))
	}
}
