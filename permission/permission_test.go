package permission_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/permission"
	"github.com/rise-and-shine/projectdocs/recordstore"
	"github.com/rise-and-shine/projectdocs/recordstore/recordstoretest"
	"github.com/rise-and-shine/projectdocs/slot"
)

var (
	draft = slot.Definition{Key: slot.DraftMap, Cardinality: slot.MultiVersioned, OwnerEditable: true}
	final = slot.Definition{Key: slot.FinalMap, Cardinality: slot.Single}
	admin = permission.Actor{ID: "usr_admin", Role: permission.RoleAdmin}
	owner = permission.Actor{ID: "usr_owner", Role: permission.RoleOwner}
)

func TestCanPerform(t *testing.T) {
	tests := []struct {
		name   string
		actor  permission.Actor
		def    slot.Definition
		action permission.Action
		want   permission.Decision
	}{
		{"admin insert draft", admin, draft, permission.ActionInsert, permission.Allow},
		{"admin delete final", admin, final, permission.ActionDelete, permission.Allow},
		{"owner insert draft", owner, draft, permission.ActionInsert, permission.AllowIfOwner},
		{"owner replace draft", owner, draft, permission.ActionReplace, permission.AllowIfOwner},
		{"owner delete draft", owner, draft, permission.ActionDelete, permission.Deny},
		{"owner insert final", owner, final, permission.ActionInsert, permission.Deny},
		{"owner delete final", owner, final, permission.ActionDelete, permission.Deny},
		{"unknown role", permission.Actor{ID: "x", Role: "viewer"}, draft, permission.ActionInsert, permission.Deny},
		{"unknown action", owner, draft, "archive", permission.Deny},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, permission.CanPerform(tc.actor, tc.def, tc.action))
		})
	}
}

func newOwnership(t *testing.T, ownerValue any) (*permission.Gate, *recordstoretest.Store) {
	t.Helper()

	store := recordstoretest.New()
	store.PutRecord("Projects", recordstore.Record{ID: "rec1", Fields: map[string]any{"Owner": ownerValue}})
	return permission.NewGate(permission.NewRecordOwnership(store, "Projects", "Owner")), store
}

func TestAuthorize(t *testing.T) {
	t.Run("admin skips ownership read", func(t *testing.T) {
		gate, store := newOwnership(t, "usr_owner")
		require.NoError(t, gate.Authorize(t.Context(), admin, final, permission.ActionDelete, "rec1"))
		assert.Zero(t, store.Calls(recordstoretest.MethodGetRecord))
	})

	t.Run("owner of linked record", func(t *testing.T) {
		gate, _ := newOwnership(t, []any{"usr_other", "usr_owner"})
		require.NoError(t, gate.Authorize(t.Context(), owner, draft, permission.ActionInsert, "rec1"))
	})

	t.Run("owner of another record", func(t *testing.T) {
		gate, _ := newOwnership(t, "usr_other")
		err := gate.Authorize(t.Context(), owner, draft, permission.ActionInsert, "rec1")
		assert.True(t, errx.IsCodeIn(err, docerr.CodePermissionDenied))
		assert.Equal(t, errx.T_Forbidden, errx.GetType(err))
	})

	t.Run("owner delete denied without reads", func(t *testing.T) {
		gate, store := newOwnership(t, "usr_owner")
		err := gate.Authorize(t.Context(), owner, draft, permission.ActionDelete, "rec1")
		assert.True(t, errx.IsCodeIn(err, docerr.CodePermissionDenied))
		assert.Zero(t, store.Calls(recordstoretest.MethodGetRecord))
	})

	t.Run("missing record", func(t *testing.T) {
		gate, _ := newOwnership(t, "usr_owner")
		err := gate.Authorize(t.Context(), owner, draft, permission.ActionInsert, "recX")
		assert.True(t, errx.IsCodeIn(err, docerr.CodeRecordNotFound))
	})
}

func TestAuthorizeSchemaChange(t *testing.T) {
	require.NoError(t, permission.AuthorizeSchemaChange(permission.Actor{ID: "usr_admin", Role: permission.RoleAdmin}))

	err := permission.AuthorizeSchemaChange(permission.Actor{ID: "usr_owner", Role: permission.RoleOwner})
	assert.True(t, errx.IsCodeIn(err, docerr.CodePermissionDenied))
	assert.Equal(t, errx.T_Forbidden, errx.GetType(err))
}
