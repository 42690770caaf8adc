package store

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/petermazzocco/grams/internal/database"
	"github.com/petermazzocco/grams/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var userSeq int

func createUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	userSeq++
	u := &models.User{Name: "user", Email: fmt.Sprintf("user%d@example.com", userSeq)}
	require.NoError(t, db.Create(u).Error)
	return u
}

func idOf(g *models.Gram) string {
	return strconv.FormatUint(uint64(g.ID), 10)
}

func TestGramStore_CreateAndFind(t *testing.T) {
	db := database.OpenTest(t)
	s := NewGramStore(db, false)
	ctx := context.Background()
	user := createUser(t, db)

	g := &models.Gram{Message: "Hello!", UserID: user.ID}
	require.NoError(t, s.Create(ctx, g))
	require.NotZero(t, g.ID)

	found, err := s.Find(ctx, idOf(g))
	require.NoError(t, err)
	assert.Equal(t, "Hello!", found.Message)
	assert.Equal(t, user.ID, found.UserID)
	require.NotNil(t, found.User)
	assert.Equal(t, user.Email, found.User.Email)
}

func TestGramStore_CreateValidation(t *testing.T) {
	db := database.OpenTest(t)
	ctx := context.Background()
	user := createUser(t, db)

	s := NewGramStore(db, false)
	err := s.Create(ctx, &models.Gram{Message: "", UserID: user.ID})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "message")

	strict := NewGramStore(db, true)
	err = strict.Create(ctx, &models.Gram{Message: "no photo", UserID: user.ID})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "photo")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGramStore_FindNotFound(t *testing.T) {
	db := database.OpenTest(t)
	s := NewGramStore(db, false)
	for _, id := range []string{"999", "spaceduck", "0", "-1", ""} {
		_, err := s.Find(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, "id %q", id)
	}
}

func TestGramStore_Update(t *testing.T) {
	db := database.OpenTest(t)
	s := NewGramStore(db, false)
	ctx := context.Background()
	user := createUser(t, db)
	g := &models.Gram{Message: "Initial Value", UserID: user.ID}
	require.NoError(t, s.Create(ctx, g))

	updated, err := s.Update(ctx, idOf(g), "Changed!")
	require.NoError(t, err)
	assert.Equal(t, "Changed!", updated.Message)

	reloaded, err := s.Find(ctx, idOf(g))
	require.NoError(t, err)
	assert.Equal(t, "Changed!", reloaded.Message)
}

func TestGramStore_UpdateInvalidKeepsOriginal(t *testing.T) {
	db := database.OpenTest(t)
	s := NewGramStore(db, false)
	ctx := context.Background()
	user := createUser(t, db)
	g := &models.Gram{Message: "Initial Value", UserID: user.ID}
	require.NoError(t, s.Create(ctx, g))

	_, err := s.Update(ctx, idOf(g), "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	reloaded, err := s.Find(ctx, idOf(g))
	require.NoError(t, err)
	assert.Equal(t, "Initial Value", reloaded.Message)

	_, err = s.Update(ctx, "YOLOSWAG", "Changed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGramStore_Destroy(t *testing.T) {
	db := database.OpenTest(t)
	s := NewGramStore(db, false)
	comments := NewCommentStore(db)
	ctx := context.Background()
	user := createUser(t, db)
	g := &models.Gram{Message: "bye", Photo: "grams/1/x.jpg", UserID: user.ID}
	require.NoError(t, s.Create(ctx, g))
	_, err := comments.CreateForGram(ctx, idOf(g), "hi", user)
	require.NoError(t, err)

	deleted, err := s.Destroy(ctx, idOf(g))
	require.NoError(t, err)
	assert.Equal(t, "grams/1/x.jpg", deleted.Photo)

	_, err = s.Find(ctx, idOf(g))
	assert.ErrorIs(t, err, ErrNotFound)

	var n int64
	require.NoError(t, db.Model(&models.Comment{}).Where("gram_id = ?", g.ID).Count(&n).Error)
	assert.Zero(t, n)

	_, err = s.Destroy(ctx, idOf(g))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGramStore_ListOrdered(t *testing.T) {
	db := database.OpenTest(t)
	s := NewGramStore(db, false)
	ctx := context.Background()
	user := createUser(t, db)
	for _, m := range []string{"first", "second", "third"} {
		require.NoError(t, s.Create(ctx, &models.Gram{Message: m, UserID: user.ID}))
	}

	grams, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, grams, 3)
	assert.Equal(t, "first", grams[0].Message)
	assert.Equal(t, "third", grams[2].Message)

	mine, err := s.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "third", mine[0].Message)
}

func TestCommentStore_CreateForGram(t *testing.T) {
	db := database.OpenTest(t)
	grams := NewGramStore(db, false)
	s := NewCommentStore(db)
	ctx := context.Background()
	author := createUser(t, db)
	commenter := createUser(t, db)
	g := &models.Gram{Message: "Hello!", UserID: author.ID}
	require.NoError(t, grams.Create(ctx, g))

	c, err := s.CreateForGram(ctx, idOf(g), "hi", commenter)
	require.NoError(t, err)
	assert.Equal(t, commenter.ID, c.UserID)
	assert.Equal(t, g.ID, c.GramID)

	list, err := s.ListForGram(ctx, idOf(g))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hi", list[0].Message)
	require.NotNil(t, list[0].User)
	assert.Equal(t, commenter.Email, list[0].User.Email)

	found, err := grams.Find(ctx, idOf(g))
	require.NoError(t, err)
	assert.Len(t, found.Comments, 1)
}

func TestCommentStore_Errors(t *testing.T) {
	db := database.OpenTest(t)
	grams := NewGramStore(db, false)
	s := NewCommentStore(db)
	ctx := context.Background()
	user := createUser(t, db)

	_, err := s.CreateForGram(ctx, "404", "hi", user)
	assert.ErrorIs(t, err, ErrNotFound)

	g := &models.Gram{Message: "Hello!", UserID: user.ID}
	require.NoError(t, grams.Create(ctx, g))
	_, err = s.CreateForGram(ctx, idOf(g), "   ", user)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "validation failed: message can't be blank", verr.Error())

	list, err := s.ListForGram(ctx, idOf(g))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserStore_FindOrCreateByEmail(t *testing.T) {
	db := database.OpenTest(t)
	s := NewUserStore(db)
	ctx := context.Background()

	u1, err := s.FindOrCreateByEmail(ctx, "ada@example.com", "Ada")
	require.NoError(t, err)
	u2, err := s.FindOrCreateByEmail(ctx, "ada@example.com", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "Ada", u2.Name)

	found, err := s.Find(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", found.Email)

	_, err = s.Find(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}
