package portal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccountJSONShape(t *testing.T) {
	student := Account{ID: "u1", Name: "Rahul", Email: "r@x.edu", Profile: StudentProfile{Branch: "CSE", Year: "3rd Year"}}
	data, err := json.Marshal(student)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"u1","name":"Rahul","email":"r@x.edu","role":"STUDENT","branch":"CSE","year":"3rd Year"}`, string(data))

	admin := Account{ID: "a1", Name: "Dean", Email: "d@x.edu", Avatar: "https://picsum.photos/201", Profile: AdminProfile{}}
	data, err = json.Marshal(admin)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"a1","name":"Dean","email":"d@x.edu","role":"ADMIN","avatar":"https://picsum.photos/201"}`, string(data))
}

func TestAccountJSONDropsStudentFieldsForAdmins(t *testing.T) {
	var account Account
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","name":"Dean","email":"d@x.edu","role":"ADMIN","branch":"ME","year":"4th Year"}`), &account))

	require.Equal(t, AdminProfile{}, account.Profile)
	_, ok := account.Student()
	require.False(t, ok)
}

func TestAccountJSONRejectsUnknownRole(t *testing.T) {
	var account Account
	require.Error(t, json.Unmarshal([]byte(`{"id":"x","role":"OWNER"}`), &account))
}

func TestAccountWithoutProfileIsStudent(t *testing.T) {
	require.Equal(t, RoleStudent, Account{}.Role())
	require.False(t, Account{}.IsAdmin())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" admin ")
	require.True(t, ok)
	require.Equal(t, RoleAdmin, role)

	role, ok = ParseRole("Student")
	require.True(t, ok)
	require.Equal(t, RoleStudent, role)

	_, ok = ParseRole("lecturer")
	require.False(t, ok)
}
