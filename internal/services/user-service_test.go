package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/serializers"
)

func registration(username string) serializers.UserWrite {
	return serializers.UserWrite{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "s3cret-pass",
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)

	created, err := f.users.Register(ctx, registration("ada"))
	require.NoError(t, err)
	assert.Equal(t, "ada", created.Username)
	assert.NotZero(t, created.ID)

	user, err := f.users.Authenticate(ctx, "ada@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEqual(t, "s3cret-pass", user.Password)

	_, err = f.users.Authenticate(ctx, "ada@example.com", "wrong")
	assert.Equal(t, MsgInvalidCredentials, requireKind(t, err, KindValidation).Message)
	_, err = f.users.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	requireKind(t, err, KindValidation)
}

func TestRegisterDuplicates(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Register(ctx, registration("ada"))
	require.NoError(t, err)

	_, err = f.users.Register(ctx, registration("ada"))
	fields := requireKind(t, err, KindValidation).Fields
	assert.Equal(t, []string{MsgEmailTaken}, fields["email"])
	assert.Equal(t, []string{MsgUsernameTaken}, fields["username"])

	bad := registration("ada lovelace")
	bad.Email = "other@example.com"
	_, err = f.users.Register(ctx, bad)
	fields = requireKind(t, err, KindValidation).Fields
	assert.Equal(t, []string{serializers.MsgInvalidUsername}, fields["username"])
}

func TestRegisterLosingRaceReportsTakenEmail(t *testing.T) {
	f := newFixture(t)

	// a concurrent sign-up stores the same email between the availability
	// check and the insert
	raced := false
	require.NoError(t, f.db.Callback().Create().Before("gorm:begin_transaction").Register("test:concurrent_signup", func(db *gorm.DB) {
		if raced || db.Statement.Table != "users" {
			return
		}
		raced = true
		now := time.Now()
		require.NoError(t, db.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO users (email, username, first_name, last_name, password, is_staff, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			"ada@example.com", "someone-else", "Other", "User", "x", false, now, now,
		).Error)
	}))

	_, err := f.users.Register(ctx, registration("ada"))
	require.True(t, raced)
	fields := requireKind(t, err, KindValidation).Fields
	assert.Equal(t, []string{MsgEmailTaken}, fields["email"])
	assert.NotContains(t, fields, "username")
}

func TestSetPassword(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada")
	viewer := Viewer{ID: u.ID}

	err := f.users.SetPassword(ctx, viewer, serializers.PasswordWrite{CurrentPassword: "nope", NewPassword: "another-pass"})
	fields := requireKind(t, err, KindValidation).Fields
	assert.Equal(t, []string{MsgWrongPassword}, fields["current_password"])

	require.NoError(t, f.users.SetPassword(ctx, viewer, serializers.PasswordWrite{CurrentPassword: "password123", NewPassword: "another-pass"}))
	_, err = f.users.Authenticate(ctx, u.Email, "another-pass")
	assert.NoError(t, err)
}

func TestAvatar(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada")
	viewer := Viewer{ID: u.ID}

	_, err := f.users.SetAvatar(ctx, viewer, "not-a-data-uri")
	fields := requireKind(t, err, KindValidation).Fields
	assert.Equal(t, []string{serializers.MsgInvalidImage}, fields["avatar"])

	url, err := f.users.SetAvatar(ctx, viewer, testImage)
	require.NoError(t, err)
	assert.Contains(t, url, "/media/users/")

	profile, err := f.users.Profile(ctx, Viewer{}, u.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Avatar)
	assert.Equal(t, url, *profile.Avatar)

	require.NoError(t, f.users.DeleteAvatar(ctx, viewer))
	profile, err = f.users.Profile(ctx, Viewer{}, u.ID)
	require.NoError(t, err)
	assert.Nil(t, profile.Avatar)
}

func TestProfileAndList(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	require.NoError(t, f.follows.Add(ctx, alice.ID, bob.ID))

	profile, err := f.users.Profile(ctx, Viewer{ID: alice.ID}, bob.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsSubscribed)

	profile, err = f.users.Profile(ctx, Viewer{}, bob.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)

	_, err = f.users.Profile(ctx, Viewer{}, 999)
	requireKind(t, err, KindNotFound)

	list, err := f.users.List(ctx, Viewer{ID: alice.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsSubscribed)
	assert.True(t, list[1].IsSubscribed)
}

func TestSubscriptions(t *testing.T) {
	f := newFixture(t)
	reader := f.user(t, "reader")
	prolific := f.user(t, "prolific")
	quiet := f.user(t, "quiet")
	f.user(t, "unfollowed")
	salt := f.ingredient(t, "salt", "g")
	tag := f.tagID(t, "lunch")

	var newest uint
	for i := 0; i < 3; i++ {
		newest = f.recipe(t, prolific, fmt.Sprintf("Dish %d", i), []uint{tag}, amount(salt.ID, 1)).ID
	}
	require.NoError(t, f.follows.Add(ctx, reader.ID, prolific.ID))
	require.NoError(t, f.follows.Add(ctx, reader.ID, quiet.ID))

	limit := func(n int) *int { return &n }

	cards, err := f.users.Subscriptions(ctx, Viewer{ID: reader.ID}, nil)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, prolific.ID, cards[0].ID)
	assert.True(t, cards[0].IsSubscribed)
	assert.Equal(t, int64(3), cards[0].RecipesCount)
	assert.Len(t, cards[0].Recipes, 3)
	assert.Equal(t, newest, cards[0].Recipes[0].ID)
	assert.Equal(t, quiet.ID, cards[1].ID)
	assert.Zero(t, cards[1].RecipesCount)
	assert.NotNil(t, cards[1].Recipes)

	cards, err = f.users.Subscriptions(ctx, Viewer{ID: reader.ID}, limit(1))
	require.NoError(t, err)
	require.Len(t, cards[0].Recipes, 1)
	assert.Equal(t, newest, cards[0].Recipes[0].ID)
	assert.Equal(t, int64(3), cards[0].RecipesCount, "count is not capped")

	cards, err = f.users.Subscriptions(ctx, Viewer{ID: reader.ID}, limit(0))
	require.NoError(t, err)
	assert.Empty(t, cards[0].Recipes)

	card, err := f.users.FollowCard(ctx, Viewer{ID: reader.ID}, prolific.ID, limit(2))
	require.NoError(t, err)
	assert.True(t, card.IsSubscribed)
	assert.Len(t, card.Recipes, 2)

	none, err := f.users.Subscriptions(ctx, Viewer{ID: prolific.ID}, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetUserByID(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada")

	got, err := f.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = f.users.GetUserByID(ctx, u.ID+1)
	requireKind(t, err, KindNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
