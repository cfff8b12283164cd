package permission

import (
	"context"
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/projectdocs/recordstore"
)

// RecordOwnership checks ownership by reading an owner field of the record.
// The field may hold a plain id or a list of linked ids.
type RecordOwnership struct {
	records    recordstore.Client
	table      string
	ownerField string
}

var _ OwnershipChecker = (*RecordOwnership)(nil)

// NewRecordOwnership creates a RecordOwnership.
func NewRecordOwnership(records recordstore.Client, table, ownerField string) *RecordOwnership {
	return &RecordOwnership{records: records, table: table, ownerField: ownerField}
}

// IsOwner implements OwnershipChecker.
func (o *RecordOwnership) IsOwner(ctx context.Context, actor Actor, recordID string) (bool, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return false, nil
	}

	rec, err := o.records.GetRecord(ctx, o.table, recordID)
	if err != nil {
		return false, errx.Wrap(err)
	}

	value := rec.Field(o.ownerField)
	owners := cast.ToStringSlice(value)
	if s, ok := value.(string); ok {
		owners = []string{s}
	}

	return lo.Contains(owners, actor.ID), nil
}
