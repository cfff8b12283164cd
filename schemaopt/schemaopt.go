// Package schemaopt adds and removes choices of the season select field.
//
// The record store has no call that adds a choice. Adding creates a
// placeholder record carrying the new value, which typecast registers as a
// choice, and deletes the record right away. Removing rewrites the whole
// options object of the field without the choice, after checking that no
// live record uses it.
package schemaopt

import (
	"context"
	"fmt"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/observability/alert"
	"github.com/rise-and-shine/projectdocs/observability/logger"
	"github.com/rise-and-shine/projectdocs/recordstore"
)

const (
	opAddChoice    = "schemaopt.add_season_choice"
	opDeleteChoice = "schemaopt.delete_season_choice"
)

// Mutator changes the choices of the season field.
type Mutator struct {
	records recordstore.Client
	alerts  alert.Provider
	cfg     Config
	log     logger.Logger
}

// New creates a Mutator. Orphaned placeholder records are reported to alerts.
func New(cfg Config, records recordstore.Client, alerts alert.Provider, log logger.Logger) *Mutator {
	return &Mutator{
		records: records,
		alerts:  alerts,
		cfg:     cfg,
		log:     log.Named("schemaopt"),
	}
}

// AddResult is the outcome of AddSeasonChoice.
type AddResult struct {
	Message string
	// AlreadyExists is set when a matching choice was present before the add.
	AlreadyExists bool
	// Confirmed is set when a re-read of the schema found the new choice.
	Confirmed bool
}

// DeleteResult is the outcome of DeleteSeasonChoice.
type DeleteResult struct {
	Success bool
	Message string
}

// AddSeasonChoice registers name as a choice of the season field.
// With SkipVerifyAfterAdd the result is advisory: the choice was potentially added.
func (m *Mutator) AddSeasonChoice(ctx context.Context, name string) (*AddResult, error) {
	ctx = context.WithoutCancel(ctx)
	name = strings.TrimSpace(name)
	log := m.log.WithContext(ctx).With("operation", opAddChoice).With("season", name)

	_, field, err := m.seasonField(ctx)
	if err != nil {
		return nil, err
	}
	if existing, ok := findChoice(field, name); ok {
		log.With("choice_id", existing.ID).Info("season choice already exists")
		return &AddResult{
			Message:       fmt.Sprintf("Season %q already exists", existing.Name),
			AlreadyExists: true,
			Confirmed:     true,
		}, nil
	}

	fields := lo.Assign(m.cfg.PlaceholderFields, map[string]any{
		m.cfg.SentinelField: m.cfg.SentinelValue,
		field.Name:          choiceValue(field, name),
	})

	rec, err := m.records.CreateRecord(ctx, m.cfg.Table, fields)
	if err != nil {
		return nil, docerr.Upstream(err, docerr.CodeUpstream, errx.D{"season": name})
	}
	log = log.With("placeholder_id", rec.ID)
	log.Debug("placeholder record created")

	err = retry.Do(
		func() error { return m.records.DeleteRecord(ctx, m.cfg.Table, rec.ID) },
		retry.Context(ctx),
		retry.Attempts(2), //nolint:mnd // the delete plus one retry
		retry.Delay(m.cfg.DeleteRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, m.orphaned(ctx, log, rec.ID, name, err)
	}
	log.Debug("placeholder record deleted")

	result := &AddResult{Message: fmt.Sprintf("Season %q was potentially added", name)}
	if m.cfg.SkipVerifyAfterAdd {
		return result, nil
	}

	_, field, err = m.seasonField(ctx)
	if err != nil {
		log.Warnx(err)
		return result, nil
	}
	if _, ok := findChoice(field, name); ok {
		result.Confirmed = true
		result.Message = fmt.Sprintf("Season %q added", name)
	}
	return result, nil
}

// DeleteSeasonChoice removes the choice matching name. It fails with NotFound
// when no choice matches and with Conflict while a live record uses it.
func (m *Mutator) DeleteSeasonChoice(ctx context.Context, name string) (*DeleteResult, error) {
	ctx = context.WithoutCancel(ctx)
	log := m.log.WithContext(ctx).With("operation", opDeleteChoice).With("season", name)

	table, field, err := m.seasonField(ctx)
	if err != nil {
		return nil, err
	}

	choice, ok := findChoice(field, name)
	if !ok {
		return nil, docerr.NotFound("season choice not found", docerr.CodeChoiceNotFound, errx.D{"season": name})
	}
	log = log.With("choice_id", choice.ID)

	used, err := m.records.FindRecords(ctx, m.cfg.Table, recordstore.FindOptions{
		Formula:    usageFormula(field, choice.Name, m.cfg),
		MaxRecords: 1,
		Fields:     []string{field.Name},
	})
	if err != nil {
		return nil, docerr.Upstream(err, docerr.CodeUpstream, errx.D{"season": choice.Name})
	}
	if len(used) > 0 {
		return nil, docerr.Conflict("season is still used by projects", docerr.CodeChoiceInUse, errx.D{
			"season":    choice.Name,
			"record_id": used[0].ID,
		})
	}

	err = m.records.PatchFieldSchema(ctx, table.ID, recordstore.FieldDefinition{
		ID:      field.ID,
		Name:    field.Name,
		Type:    field.Type,
		Options: withoutChoice(field, choice.ID),
	})
	if err != nil {
		return nil, patchFailed(err, choice.Name)
	}

	log.Info("season choice removed")
	return &DeleteResult{Success: true, Message: fmt.Sprintf("Season %q deleted", choice.Name)}, nil
}

// seasonField reads the current schema of the season field. Never cached:
// a stale options object would make the removal patch destructive.
func (m *Mutator) seasonField(ctx context.Context) (recordstore.Table, recordstore.Field, error) {
	tables, err := m.records.ListTables(ctx)
	if err != nil {
		return recordstore.Table{}, recordstore.Field{}, docerr.Upstream(err, docerr.CodeUpstream, nil)
	}

	table, ok := lo.Find(tables, func(t recordstore.Table) bool {
		return t.Name == m.cfg.Table || t.ID == m.cfg.Table
	})
	if !ok {
		return recordstore.Table{}, recordstore.Field{}, docerr.NotFound(
			"table not found in schema", docerr.CodeTableNotFound, errx.D{"table": m.cfg.Table},
		)
	}

	field, ok := table.FieldByName(m.cfg.Field)
	if !ok {
		return recordstore.Table{}, recordstore.Field{}, docerr.NotFound(
			"season field not found in schema", docerr.CodeFieldNotFound, errx.D{"field": m.cfg.Field},
		)
	}
	return table, field, nil
}

// orphaned reports a placeholder record that could not be deleted.
func (m *Mutator) orphaned(ctx context.Context, log logger.Logger, recordID, season string, cause error) error {
	err := errx.New(
		"placeholder record could not be deleted, manual intervention required",
		errx.WithCode(docerr.CodeManualIntervention),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{
			"record_id": recordID,
			"table":     m.cfg.Table,
			"season":    season,
			"cause":     cause.Error(),
		}),
	)
	log.Criticalx(err)

	alertErr := m.alerts.SendError(ctx, docerr.CodeManualIntervention, err.Error(), opAddChoice, map[string]string{
		"record_id": recordID,
		"table":     m.cfg.Table,
		"season":    season,
	})
	if alertErr != nil {
		log.With("alert_send_error", alertErr.Error()).Warn("failed to send alert")
	}
	return err
}

// withoutChoice deep-copies the options of f and drops the choice with id
// from choices and choiceOrder. Unknown attributes are kept as they are.
func withoutChoice(f recordstore.Field, id string) map[string]any {
	options, _ := deepCopy(f.Options).(map[string]any)
	if options == nil {
		options = map[string]any{}
	}

	options["choices"] = lo.Reject(cast.ToSlice(options["choices"]), func(item any, _ int) bool {
		return cast.ToString(cast.ToStringMap(item)["id"]) == id
	})
	if order, ok := options["choiceOrder"]; ok {
		options["choiceOrder"] = lo.Without(cast.ToStringSlice(order), id)
	}
	return options
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func choiceValue(f recordstore.Field, name string) any {
	if f.Type == recordstore.FieldTypeMultipleSelect {
		return []string{name}
	}
	return name
}

// patchFailed keeps the store's message verbatim behind a generic prefix.
func patchFailed(err error, season string) error {
	storeMsg := cast.ToString(errx.AsErrorX(err).Details()["store_message"])
	if storeMsg == "" {
		storeMsg = err.Error()
	}
	msg := fmt.Sprintf("failed to delete season %q: %s", season, storeMsg)

	return errx.New(
		msg,
		errx.WithCode(docerr.CodeUpstream),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{
			"season":        season,
			"store_message": storeMsg,
			"cause":         err.Error(),
		}),
	)
}
