// internal/services/network_service_test.go
package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotRows builds the canonical mock forest: system root, ACF root and
// two second-level users under the ACF root.
func snapshotRows() *sqlmock.Rows {
	return sqlmock.NewRows(
		[]string{"id", "world_id", "username", "parent_id", "child_count", "max_children", "acf_accepting", "level", "run_number"}).
		AddRow("7b5c2f3a-0000-0000-0000-000000000000", "25AAA0000", "system_root", nil, 1, 1, true, 0, 0).
		AddRow("7b5c2f3a-0000-0000-0000-000000000001", "25AAA0001", "root_user", "7b5c2f3a-0000-0000-0000-000000000000", 2, 5, true, 1, 1).
		AddRow("7b5c2f3a-0000-0000-0000-000000000002", "25AAA0002", "alice", "7b5c2f3a-0000-0000-0000-000000000001", 0, 5, true, 2, 2).
		AddRow("7b5c2f3a-0000-0000-0000-000000000003", "25AAA0003", "bob", "7b5c2f3a-0000-0000-0000-000000000001", 0, 5, true, 2, 3)
}

func TestGetTree(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNetworkService(db, testConfig())

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(snapshotRows())

	tree, err := svc.GetTree("25AAA0001")
	require.NoError(t, err)

	assert.Equal(t, "25AAA0001", tree.WorldID)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "25AAA0002", tree.Children[0].WorldID)
	assert.Equal(t, "25AAA0003", tree.Children[1].WorldID)
	assert.Empty(t, tree.Children[0].Children)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTreeUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNetworkService(db, testConfig())

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(snapshotRows())

	_, err := svc.GetTree("25AAA9999")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetSummary(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNetworkService(db, testConfig())

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(snapshotRows())

	summary, err := svc.GetSummary("25AAA0001")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.NetworkSize)
	assert.Equal(t, 2, summary.DirectChildren)
	assert.Equal(t, 1, summary.MaxDepth)
	// root has 3 free slots, each leaf 5
	assert.Equal(t, 13, summary.OpenSlots)
	assert.Equal(t, 19531, summary.MaxNetworkSize)
}

func TestGetTablePadsChildSlots(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNetworkService(db, testConfig())

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(snapshotRows())

	rows, err := svc.GetTable("25AAA0001")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "25AAA0001", rows[0].WorldID)
	assert.Equal(t, "25AAA0000", rows[0].ParentWorldID)
	assert.Equal(t, []string{"25AAA0002", "25AAA0003", "", "", ""}, rows[0].ChildWorldIDs)
	assert.Equal(t, []string{"", "", "", "", ""}, rows[1].ChildWorldIDs)
}

func TestGetUplinePath(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNetworkService(db, testConfig())

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(snapshotRows())

	path, err := svc.GetUplinePath("25AAA0002")
	require.NoError(t, err)

	require.Len(t, path, 3)
	assert.Equal(t, "25AAA0002", path[0].WorldID)
	assert.Equal(t, "25AAA0001", path[1].WorldID)
	assert.Equal(t, "25AAA0000", path[2].WorldID)
}

func TestPreviewCandidatesOrdering(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNetworkService(db, testConfig())

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(snapshotRows())

	candidates, err := svc.PreviewCandidates("NIC", "", 5)
	require.NoError(t, err)

	// ACF root first (shallowest), then its children by run number.
	require.Len(t, candidates, 3)
	assert.Equal(t, "25AAA0001", candidates[0].WorldID)
	assert.Equal(t, 0, candidates[0].RelativeDepth)
	assert.Equal(t, "25AAA0002", candidates[1].WorldID)
	assert.Equal(t, "25AAA0003", candidates[2].WorldID)
}

func TestPreviewCandidatesBIC(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewNetworkService(db, testConfig())

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(snapshotRows())

	candidates, err := svc.PreviewCandidates("BIC", "25AAA0002", 5)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "25AAA0002", candidates[0].WorldID)
}
