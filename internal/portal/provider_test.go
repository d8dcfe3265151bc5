package portal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/snapshot"
	"github.com/fenggwsx/StudyShelf/internal/storage"
	"github.com/fenggwsx/StudyShelf/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type testEnv struct {
	adapter *snapshot.Adapter
	store   storage.Store
	next    int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.NewStore(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "portal.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return &testEnv{adapter: snapshot.NewAdapter(store), store: store}
}

func (e *testEnv) provider() *Provider {
	return New(context.Background(), e.adapter,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			e.next++
			return fmt.Sprintf("id-%d", e.next)
		}),
	)
}

func materialByID(t *testing.T, p *Provider, id string) Material {
	t.Helper()
	m, ok := p.Material(id)
	require.True(t, ok, "material %s missing", id)
	return m
}

func TestNewFallsBackToSeedData(t *testing.T) {
	p := newTestEnv(t).provider()

	require.Len(t, p.Accounts(), 2)
	materials := p.Materials()
	require.Len(t, materials, 4)
	require.Len(t, Pending(materials), 1)
	require.Equal(t, fixedNow, materialByID(t, p, "m3").CreatedAt)
	_, ok := p.Session()
	require.False(t, ok)
	require.Empty(t, p.LikedIDs())
}

func TestNewFallsBackWhenSnapshotCorrupt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.PutSnapshot(ctx, &storage.Snapshot{Key: KeyAccounts, Value: []byte(`[{"id":"x","role":"OWNER"}]`)}))
	require.NoError(t, env.store.PutSnapshot(ctx, &storage.Snapshot{Key: KeyMaterials, Value: []byte(`not json`)}))

	p := env.provider()
	require.Equal(t, SeedAccounts(), p.Accounts())
	require.Len(t, p.Materials(), 4)
}

func TestSignupOnEmptyCatalog(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.adapter.Save(context.Background(), KeyAccounts, []Account{}))
	p := env.provider()

	account, ok := p.Signup(context.Background(), SignupRequest{
		Name: "Priya", Email: "priya@x.edu", Password: "abc123", Role: RoleStudent, Branch: "ECE", Year: "1st Year",
	})
	require.True(t, ok)

	session, ok := p.Session()
	require.True(t, ok)
	require.Equal(t, account, session)
	require.Equal(t, "Priya", session.Name)
	require.Equal(t, "priya@x.edu", session.Email)
	require.Equal(t, RoleStudent, session.Role())
	student, ok := session.Student()
	require.True(t, ok)
	require.Equal(t, StudentProfile{Branch: "ECE", Year: "1st Year"}, student)
	require.Equal(t, "https://ui-avatars.com/api/?name=Priya&background=random", session.Avatar)
	require.Len(t, p.Accounts(), 1)

	_, ok = p.Login(context.Background(), "priya@x.edu", "abc123", RoleAdmin)
	require.False(t, ok)
	_, ok = p.Login(context.Background(), "priya@x.edu", "abc123", RoleStudent)
	require.True(t, ok)
}

func TestSignupDefaultsAndVariants(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()

	student, ok := p.Signup(ctx, SignupRequest{Name: "Aman Verma", Email: "aman@x.edu", Password: "pw1", Role: RoleStudent})
	require.True(t, ok)
	profile, isStudent := student.Student()
	require.True(t, isStudent)
	require.Equal(t, StudentProfile{Branch: "CSE", Year: "1st Year"}, profile)
	require.Equal(t, "https://ui-avatars.com/api/?name=Aman%20Verma&background=random", student.Avatar)

	admin, ok := p.Signup(ctx, SignupRequest{Name: "Dean", Email: "dean@x.edu", Password: "pw1", Role: RoleAdmin, Branch: "ME"})
	require.True(t, ok)
	_, isStudent = admin.Student()
	require.False(t, isStudent)
	require.True(t, admin.IsAdmin())
}

func TestEmailUniquenessIsCaseInsensitive(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()

	_, ok := p.Signup(ctx, SignupRequest{Name: "Dup", Email: "  RAHUL@abes.edu.in ", Password: "abc", Role: RoleStudent})
	require.False(t, ok)
	_, ok = p.AdminAddUser(ctx, NewAccount{Name: "Dup", Email: "Admin@ABES.edu.in", Role: RoleAdmin})
	require.False(t, ok)
	require.Len(t, p.Accounts(), 2)

	seen := make(map[string]bool)
	for _, a := range p.Accounts() {
		key := normalizeEmail(a.Email)
		require.False(t, seen[key])
		seen[key] = true
	}
}

func TestLoginRoleMatrix(t *testing.T) {
	cases := []struct {
		name      string
		email     string
		password  string
		requested Role
		want      bool
	}{
		{"student as student", "rahul@abes.edu.in", "abc", RoleStudent, true},
		{"student as admin", "rahul@abes.edu.in", "abc", RoleAdmin, false},
		{"admin as admin", "admin@abes.edu.in", "abc", RoleAdmin, true},
		{"admin as student", "admin@abes.edu.in", "abc", RoleStudent, true},
		{"email case and spaces", "  Rahul@ABES.edu.in ", "abc", RoleStudent, true},
		{"short password", "rahul@abes.edu.in", " ab ", RoleStudent, false},
		{"unknown email", "nobody@abes.edu.in", "abcdef", RoleStudent, false},
		{"unknown role", "admin@abes.edu.in", "abcdef", Role("GUEST"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestEnv(t).provider()
			_, ok := p.Login(context.Background(), tc.email, tc.password, tc.requested)
			require.Equal(t, tc.want, ok)
			_, hasSession := p.Session()
			require.Equal(t, tc.want, hasSession)
		})
	}
}

func TestAdminLoginAsStudentKeepsAdminRole(t *testing.T) {
	p := newTestEnv(t).provider()

	account, ok := p.Login(context.Background(), "admin@abes.edu.in", "secret", RoleStudent)
	require.True(t, ok)
	require.True(t, account.IsAdmin())
}

func TestAdminAddUserLeavesSession(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()
	_, ok := p.Login(ctx, "admin@abes.edu.in", "secret", RoleAdmin)
	require.True(t, ok)

	added, ok := p.AdminAddUser(ctx, NewAccount{Name: "Neha", Email: "neha@x.edu", Role: RoleStudent, Year: "2nd Year"})
	require.True(t, ok)
	profile, _ := added.Student()
	require.Equal(t, StudentProfile{Branch: "CSE", Year: "2nd Year"}, profile)

	session, _ := p.Session()
	require.Equal(t, "admin1", session.ID)
	require.Len(t, p.Accounts(), 3)
}

func TestAddApproveLikeScenario(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()
	_, ok := p.Login(ctx, "rahul@abes.edu.in", "abc", RoleStudent)
	require.True(t, ok)

	created := p.AddMaterial(ctx, Draft{Title: "X", Branch: "CSE", Year: "1st Year", Semester: "Sem 1", Type: TypeNotes, UploadedBy: "u1", UploaderName: "Rahul Sharma"})
	require.False(t, created.IsApproved)
	require.Zero(t, created.Downloads)
	require.Zero(t, created.Likes)
	require.Equal(t, fixedNow, created.CreatedAt)
	require.Equal(t, created.ID, p.Materials()[0].ID)

	require.True(t, p.ApproveMaterial(ctx, created.ID))
	liked, found := p.ToggleLike(ctx, created.ID)
	require.True(t, found)
	require.True(t, liked)

	got := materialByID(t, p, created.ID)
	require.True(t, got.IsApproved)
	require.Equal(t, 1, got.Likes)
	require.True(t, p.IsMaterialLiked(created.ID))
}

func TestToggleLikeIsAnInvolution(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()
	before := materialByID(t, p, "m1")

	_, _ = p.ToggleLike(ctx, "m1")
	require.Equal(t, before.Likes+1, materialByID(t, p, "m1").Likes)
	liked, _ := p.ToggleLike(ctx, "m1")
	require.False(t, liked)

	require.Equal(t, before, materialByID(t, p, "m1"))
	require.False(t, p.IsMaterialLiked("m1"))
}

func TestToggleLikeFloorsAtZero(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.adapter.Save(context.Background(), KeyLikes, []string{"m3"}))
	p := env.provider()
	require.True(t, p.IsMaterialLiked("m3"))

	liked, found := p.ToggleLike(context.Background(), "m3")
	require.True(t, found)
	require.False(t, liked)
	require.Zero(t, materialByID(t, p, "m3").Likes)
}

func TestToggleLikeUnknownMaterial(t *testing.T) {
	p := newTestEnv(t).provider()

	_, found := p.ToggleLike(context.Background(), "missing")
	require.False(t, found)
	require.Empty(t, p.LikedIDs())
}

func TestDownloadIsCountedEveryTime(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()
	start := materialByID(t, p, "m1").Downloads

	for i := 1; i <= 3; i++ {
		delivery, ok := p.DownloadMaterial(ctx, "m1")
		require.True(t, ok)
		require.Equal(t, samplePDF, delivery.URL)
		require.Equal(t, start+i, materialByID(t, p, "m1").Downloads)
	}

	_, ok := p.DownloadMaterial(ctx, "missing")
	require.False(t, ok)
}

func TestApproveIsIdempotent(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()

	require.True(t, p.ApproveMaterial(ctx, "m3"))
	once := p.Materials()
	require.True(t, p.ApproveMaterial(ctx, "m3"))
	require.Equal(t, once, p.Materials())
	require.False(t, p.ApproveMaterial(ctx, "missing"))
}

func TestDeleteMaterial(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()

	require.True(t, p.DeleteMaterial(ctx, "m3"))
	_, ok := p.Material("m3")
	require.False(t, ok)
	require.False(t, p.DeleteMaterial(ctx, "m3"))
	require.Len(t, p.Materials(), 3)
}

func TestLogoutClearsSessionAndLikes(t *testing.T) {
	env := newTestEnv(t)
	p := env.provider()
	ctx := context.Background()
	_, ok := p.Login(ctx, "rahul@abes.edu.in", "abc", RoleStudent)
	require.True(t, ok)
	_, _ = p.ToggleLike(ctx, "m1")
	_, _ = p.ToggleLike(ctx, "m2")

	p.Logout(ctx)
	_, ok = p.Session()
	require.False(t, ok)
	require.Empty(t, p.LikedIDs())
	require.False(t, env.adapter.Exists(ctx, KeySession))
	require.False(t, env.adapter.Exists(ctx, KeyLikes))

	p.Logout(ctx)
	_, ok = p.Session()
	require.False(t, ok)

	reloaded := env.provider()
	_, ok = reloaded.Session()
	require.False(t, ok)
	require.Empty(t, reloaded.LikedIDs())
}

func TestDeleteSelfIsIgnored(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()
	_, ok := p.Login(ctx, "admin@abes.edu.in", "abc", RoleAdmin)
	require.True(t, ok)
	before := p.Accounts()

	p.DeleteUser(ctx, "admin1")
	require.Equal(t, before, p.Accounts())
	session, ok := p.Session()
	require.True(t, ok)
	require.Equal(t, "admin1", session.ID)
}

func TestDeleteUserDoesNotCascade(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()
	_, _ = p.Login(ctx, "admin@abes.edu.in", "abc", RoleAdmin)

	p.DeleteUser(ctx, "u1")
	_, ok := p.Account("u1")
	require.False(t, ok)
	m1 := materialByID(t, p, "m1")
	require.Equal(t, "u1", m1.UploadedBy)
	require.Equal(t, "Rahul Sharma", m1.UploaderName)

	p.DeleteUser(ctx, "missing")
	require.Len(t, p.Accounts(), 1)
}

func TestPromoteToAdmin(t *testing.T) {
	p := newTestEnv(t).provider()
	ctx := context.Background()

	p.PromoteToAdmin(ctx, "u1")
	promoted, ok := p.Account("u1")
	require.True(t, ok)
	require.True(t, promoted.IsAdmin())
	_, isStudent := promoted.Student()
	require.False(t, isStudent)

	p.PromoteToAdmin(ctx, "missing")
	require.Len(t, p.Accounts(), 2)

	_, ok = p.Login(ctx, "rahul@abes.edu.in", "abc", RoleAdmin)
	require.True(t, ok)
}

func TestStateSurvivesRestart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.provider()

	_, ok := p.Signup(ctx, SignupRequest{Name: "Priya", Email: "priya@x.edu", Password: "abc", Role: RoleStudent, Branch: "IT", Year: "2nd Year"})
	require.True(t, ok)
	created := p.AddMaterial(ctx, Draft{Title: "Compiler Notes", Branch: "IT", Year: "3rd Year", Semester: "Sem 6", Type: TypeNotes, FileURL: "#", Size: "0.01 MB"})
	_, _ = p.ToggleLike(ctx, created.ID)
	_, _ = p.ToggleLike(ctx, "m4")
	_, _ = p.DownloadMaterial(ctx, "m2")
	p.PromoteToAdmin(ctx, "u1")

	reloaded := env.provider()
	require.Equal(t, p.Accounts(), reloaded.Accounts())
	require.Equal(t, p.Materials(), reloaded.Materials())
	require.Equal(t, p.LikedIDs(), reloaded.LikedIDs())
	session, ok := reloaded.Session()
	require.True(t, ok)
	require.Equal(t, "Priya", session.Name)
}

func TestSessionForMissingAccountIsDiscarded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ghost := Account{ID: "ghost", Name: "Ghost", Email: "ghost@x.edu", Profile: AdminProfile{}}
	require.NoError(t, env.adapter.Save(ctx, KeySession, ghost))

	p := env.provider()
	_, ok := p.Session()
	require.False(t, ok)
	require.False(t, env.adapter.Exists(ctx, KeySession))
}
