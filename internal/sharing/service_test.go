package sharing

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"docvault/internal/apperr"
	"docvault/internal/database"
	"docvault/internal/documents"
	"docvault/internal/notify"
	"docvault/internal/users"
	"docvault/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *Service
	docs   *documents.GormStore
	notify *notify.Service
	db     *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := database.OpenTest(t)
	docs := documents.NewGormStore(db)
	notifications := notify.NewService(notify.NewGormStore(db), nil, slog.Default())
	svc := NewService(docs, users.NewGormStore(db), notifications, slog.Default())
	return fixture{svc: svc, docs: docs, notify: notifications, db: db}
}

func createUser(t *testing.T, db *gorm.DB, id string, isAdmin bool) utils.User {
	t.Helper()
	user := utils.User{ID: id, Email: id + "@example.com", Name: id, Password: "x", IsAdmin: isAdmin, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createDocument(t *testing.T, db *gorm.DB, id, name, ownerID string) utils.Document {
	t.Helper()
	doc := utils.Document{ID: id, Name: name, ContentType: "text/plain", StorageKey: "documents/" + id, OwnerID: ownerID, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&doc).Error)
	return doc
}

func TestShare_ScenarioA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := createUser(t, f.db, "u1", false)
	u2 := createUser(t, f.db, "u2", false)
	d1 := createDocument(t, f.db, "d1", "Budget 2025.xlsx", u1.ID)

	res, err := f.svc.Share(ctx, u1.Principal(), d1.ID, "u2@example.com")
	require.NoError(t, err)
	assert.False(t, res.AlreadyShared)
	assert.Contains(t, res.Message, "u2@example.com")

	doc, err := f.docs.Get(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u2.ID}, doc.SharedWith)

	inbox, err := f.notify.List(ctx, u2.ID, notify.ListOptions{})
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.False(t, inbox[0].Read)
	assert.Contains(t, inbox[0].Message, d1.Name)

	res, err = f.svc.Share(ctx, u1.Principal(), d1.ID, "U2@Example.com")
	require.NoError(t, err)
	assert.True(t, res.AlreadyShared)
	assert.Contains(t, res.Message, "already shared")

	doc, err = f.docs.Get(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u2.ID}, doc.SharedWith)

	inbox, err = f.notify.List(ctx, u2.ID, notify.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestShare_ConcurrentSharesKeepSetSemantics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := createUser(t, f.db, "owner", false)
	createUser(t, f.db, "u2", false)
	createUser(t, f.db, "u3", false)
	doc := createDocument(t, f.db, "d1", "plan.md", owner.ID)

	var wg sync.WaitGroup
	for _, email := range []string{"u2@example.com", "u3@example.com", "u2@example.com", "u3@example.com"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Share(ctx, owner.Principal(), doc.ID, email)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u2", "u3"}, got.SharedWith)
}

func TestShare_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := createUser(t, f.db, "owner", false)
	reader := createUser(t, f.db, "reader", false)
	stranger := createUser(t, f.db, "stranger", false)
	doc := createDocument(t, f.db, "d1", "plan.md", owner.ID)
	_, err := f.docs.AddShare(ctx, doc.ID, reader.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		caller utils.Principal
		docID  string
		email  string
		kind   apperr.Kind
	}{
		{"malformed email", owner.Principal(), doc.ID, "not-an-email", apperr.KindBadRequest},
		{"unknown recipient", owner.Principal(), doc.ID, "nobody@example.com", apperr.KindNotFound},
		{"unknown document", owner.Principal(), "missing", "stranger@example.com", apperr.KindNotFound},
		{"share-list member", reader.Principal(), doc.ID, "stranger@example.com", apperr.KindForbidden},
		{"no access", stranger.Principal(), doc.ID, "reader@example.com", apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Share(ctx, tt.caller, tt.docID, tt.email)
			assert.True(t, apperr.Is(err, tt.kind), "got %v", err)
		})
	}

	got, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{reader.ID}, got.SharedWith)
}

func TestShare_DoesNotRevealRegisteredEmails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := createUser(t, f.db, "owner", false)
	reader := createUser(t, f.db, "reader", false)
	stranger := createUser(t, f.db, "stranger", false)
	doc := createDocument(t, f.db, "d1", "plan.md", owner.ID)
	_, err := f.docs.AddShare(ctx, doc.ID, reader.ID)
	require.NoError(t, err)

	_, registered := f.svc.Share(ctx, stranger.Principal(), doc.ID, "owner@example.com")
	_, unknown := f.svc.Share(ctx, stranger.Principal(), doc.ID, "nobody@example.com")
	require.Error(t, registered)
	require.Error(t, unknown)
	assert.True(t, apperr.Is(unknown, apperr.KindNotFound))
	assert.Equal(t, registered.Error(), unknown.Error())

	_, err = f.svc.Share(ctx, reader.Principal(), doc.ID, "nobody@example.com")
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "got %v", err)
}

func TestShare_WithOwnerIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := createUser(t, f.db, "owner", false)
	admin := createUser(t, f.db, "admin", true)
	doc := createDocument(t, f.db, "d1", "plan.md", owner.ID)

	res, err := f.svc.Share(ctx, owner.Principal(), doc.ID, "owner@example.com")
	require.NoError(t, err)
	assert.True(t, res.AlreadyShared)

	res, err = f.svc.Share(ctx, admin.Principal(), doc.ID, "owner@example.com")
	require.NoError(t, err)
	assert.True(t, res.AlreadyShared)

	got, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SharedWith)
}

func TestMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := createUser(t, f.db, "owner", false)
	admin := createUser(t, f.db, "admin", true)
	reader := createUser(t, f.db, "reader", false)
	writer := createUser(t, f.db, "writer", false)
	stranger := createUser(t, f.db, "stranger", false)
	doc := createDocument(t, f.db, "d1", "plan.md", owner.ID)
	for _, email := range []string{"reader@example.com", "writer@example.com"} {
		_, err := f.svc.Share(ctx, owner.Principal(), doc.ID, email)
		require.NoError(t, err)
	}

	want := []utils.ShareMember{
		{ID: reader.ID, Email: reader.Email, Name: reader.Name},
		{ID: writer.ID, Email: writer.Email, Name: writer.Name},
	}
	for _, caller := range []utils.User{owner, admin} {
		members, err := f.svc.Members(ctx, caller.Principal(), doc.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, members)
	}

	_, err := f.svc.Members(ctx, reader.Principal(), doc.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = f.svc.Members(ctx, stranger.Principal(), doc.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	empty := createDocument(t, f.db, "d2", "empty.md", owner.ID)
	members, err := f.svc.Members(ctx, owner.Principal(), empty.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestUnshare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := createUser(t, f.db, "owner", false)
	reader := createUser(t, f.db, "reader", false)
	doc := createDocument(t, f.db, "d1", "plan.md", owner.ID)
	_, err := f.docs.AddShare(ctx, doc.ID, reader.ID)
	require.NoError(t, err)

	err = f.svc.Unshare(ctx, reader.Principal(), doc.ID, reader.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, f.svc.Unshare(ctx, owner.Principal(), doc.ID, reader.ID))
	require.NoError(t, f.svc.Unshare(ctx, owner.Principal(), doc.ID, reader.ID))

	got, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SharedWith)
}
