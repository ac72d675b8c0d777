package folders

import (
	"context"
	"testing"
	"time"

	"docvault/internal/apperr"
	"docvault/internal/database"
	"docvault/internal/documents"
	"docvault/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := database.OpenTest(t)
	return NewService(NewGormStore(db), documents.NewGormStore(db)), db
}

var (
	alice = utils.Principal{ID: "alice", Email: "alice@example.com"}
	bob   = utils.Principal{ID: "bob", Email: "bob@example.com"}
	admin = utils.Principal{ID: "root", Email: "root@example.com", IsAdmin: true}
)

func TestService_CreateAndList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, alice, "  Reports ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Reports", root.Name)
	assert.Nil(t, root.ParentFolderID)

	child, err := svc.Create(ctx, alice, "2024", &root.ID)
	require.NoError(t, err)
	require.NotNil(t, child.ParentFolderID)
	assert.Equal(t, root.ID, *child.ParentFolderID)

	all, err := svc.List(ctx, alice, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	children, err := svc.List(ctx, alice, &root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	_, err = svc.Create(ctx, alice, "   ", nil)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestService_OtherPrincipalsFoldersAreHidden(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	folder, err := svc.Create(ctx, alice, "Private", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, bob, "Intruder", &folder.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Documents(ctx, bob, folder.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Documents(ctx, admin, folder.ID)
	assert.NoError(t, err)
}

func TestService_MoveRejectsCycles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, alice, "a", nil)
	require.NoError(t, err)
	b, err := svc.Create(ctx, alice, "b", &a.ID)
	require.NoError(t, err)
	c, err := svc.Create(ctx, alice, "c", &b.ID)
	require.NoError(t, err)

	_, err = svc.Move(ctx, alice, a.ID, &c.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "moving into a descendant")

	_, err = svc.Move(ctx, alice, a.ID, &a.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "moving into itself")

	moved, err := svc.Move(ctx, alice, c.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentFolderID)

	moved, err = svc.Move(ctx, alice, a.ID, &c.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentFolderID)
	assert.Equal(t, c.ID, *moved.ParentFolderID)
}

func TestService_Rename(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	folder, err := svc.Create(ctx, alice, "old", nil)
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, alice, folder.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Name)

	_, err = svc.Rename(ctx, bob, folder.ID, "mine")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestService_DeleteOnlyWhenEmpty(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, alice, "parent", nil)
	require.NoError(t, err)
	child, err := svc.Create(ctx, alice, "child", &parent.ID)
	require.NoError(t, err)

	err = svc.Delete(ctx, alice, parent.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "folder with a subfolder")

	doc := utils.Document{
		ID:          "doc-1",
		Name:        "notes.txt",
		ContentType: "text/plain",
		StorageKey:  "documents/doc-1",
		OwnerID:     alice.ID,
		FolderID:    &child.ID,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, db.Create(&doc).Error)

	err = svc.Delete(ctx, alice, child.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "folder with a document")

	require.NoError(t, db.Delete(&utils.Document{}, "id = ?", doc.ID).Error)
	require.NoError(t, svc.Delete(ctx, alice, child.ID))
	require.NoError(t, svc.Delete(ctx, alice, parent.ID))

	folders, err := svc.List(ctx, alice, nil)
	require.NoError(t, err)
	assert.Empty(t, folders)
}
