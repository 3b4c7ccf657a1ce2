package affiliation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehrozeikram/CarWheels-sub000/affiliation"
	"github.com/shehrozeikram/CarWheels-sub000/models"
)

var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newRegistry() *affiliation.Registry {
	return affiliation.New(nil, affiliation.WithClock(func() time.Time { return fixedTime }))
}

func TestRegisterOrganization(t *testing.T) {
	registry := newRegistry()

	org := registry.RegisterOrganization("Toyota Motors Pakistan")
	assert.NotEmpty(t, org.ID)
	assert.Equal(t, "Toyota Motors Pakistan", org.Name)
	assert.Equal(t, models.OrgStatusVerified, org.Status)
	assert.Equal(t, models.BadgeOrganization, org.Badge)
	assert.Equal(t, fixedTime, org.CreatedAt)

	// 每個組織拿到不同的 id
	other := registry.RegisterOrganization("Honda Atlas")
	assert.NotEqual(t, org.ID, other.ID)

	orgs := registry.Organizations()
	require.Len(t, orgs, 2)
	assert.Equal(t, org.ID, orgs[0].ID)
	assert.Equal(t, other.ID, orgs[1].ID)
}

func TestCreateAffiliation(t *testing.T) {
	registry := newRegistry()
	org := registry.RegisterOrganization("Toyota Motors Pakistan")

	created, err := registry.CreateAffiliation("user-1", org.ID, "Sales Lead")
	require.NoError(t, err)
	assert.Equal(t, models.BadgeAffiliated, created.Badge)
	assert.Equal(t, org.ID, created.OrgID)
	assert.Equal(t, "Sales Lead", created.Title)

	got := registry.UserAffiliation("user-1")
	require.NotNil(t, got)
	assert.Equal(t, created, *got)

	badge := registry.UserBadge("user-1")
	require.NotNil(t, badge)
	assert.Equal(t, models.BadgeAffiliated, *badge)
}

func TestCreateAffiliationUnknownOrg(t *testing.T) {
	registry := newRegistry()
	_, err := registry.CreateAffiliation("user-1", "no-such-org", "")
	assert.ErrorIs(t, err, affiliation.ErrOrgNotFound)
	assert.Nil(t, registry.UserAffiliation("user-1"))
}

func TestCreateAffiliationOverwritesPrior(t *testing.T) {
	registry := newRegistry()
	first := registry.RegisterOrganization("Toyota Motors Pakistan")
	second := registry.RegisterOrganization("Honda Atlas")

	_, err := registry.CreateAffiliation("user-1", first.ID, "")
	require.NoError(t, err)
	_, err = registry.CreateAffiliation("user-1", second.ID, "")
	require.NoError(t, err)

	// 一個使用者只能隸屬一個組織，後到的關聯生效
	got := registry.UserAffiliation("user-1")
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.OrgID)
}

func TestUserBadgeAbsent(t *testing.T) {
	registry := newRegistry()
	assert.Nil(t, registry.UserBadge("nobody"))
	assert.Nil(t, registry.UserAffiliation("nobody"))
}

func TestRemoveAffiliation(t *testing.T) {
	registry := newRegistry()
	org := registry.RegisterOrganization("Toyota Motors Pakistan")
	_, err := registry.CreateAffiliation("user-1", org.ID, "")
	require.NoError(t, err)

	registry.RemoveAffiliation("user-1")
	assert.Nil(t, registry.UserAffiliation("user-1"))

	// 不存在時靜默略過
	registry.RemoveAffiliation("user-1")
}

func TestCleanupDuplicateOrganizations(t *testing.T) {
	registry := newRegistry()
	kept := registry.RegisterOrganization("Toyota Motors Pakistan")
	registry.RegisterOrganization("Honda Atlas")
	registry.RegisterOrganization("Toyota Motors Pakistan")
	registry.RegisterOrganization("Toyota Motors Pakistan")

	removed := registry.CleanupDuplicateOrganizations()
	assert.Equal(t, 2, removed)

	// 保留最早註冊的那一筆，順序不變
	orgs := registry.Organizations()
	require.Len(t, orgs, 2)
	assert.Equal(t, kept.ID, orgs[0].ID)
	assert.Equal(t, "Honda Atlas", orgs[1].Name)

	// 已經沒有重複時不再移除
	assert.Zero(t, registry.CleanupDuplicateOrganizations())
}

func TestCleanupRequiresExactNameMatch(t *testing.T) {
	registry := newRegistry()
	registry.RegisterOrganization("Toyota Motors Pakistan")
	registry.RegisterOrganization("toyota motors pakistan")

	// 大小寫不同視為不同組織
	assert.Zero(t, registry.CleanupDuplicateOrganizations())
	assert.Len(t, registry.Organizations(), 2)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	registry := newRegistry()

	var snapshots [][]models.Organization
	unsubscribe := registry.Subscribe(func(snapshot []models.Organization) {
		snapshots = append(snapshots, snapshot)
	})

	registry.RegisterOrganization("Toyota Motors Pakistan")
	require.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0], 1)

	org := registry.RegisterOrganization("Honda Atlas")
	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1], 2)

	_, err := registry.CreateAffiliation("user-1", org.ID, "")
	require.NoError(t, err)
	assert.Len(t, snapshots, 3)

	unsubscribe()
	registry.RegisterOrganization("Suzuki Center")
	assert.Len(t, snapshots, 3)
}
