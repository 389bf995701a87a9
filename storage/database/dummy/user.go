package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()
	if filter != nil {
		users = filterUsers(users, filter)
	}
	if len(ordering) > 0 {
		sort.SliceStable(users, func(i, j int) bool { return lessUser(users[i], users[j], ordering) })
	}
	return users, nil
}

func filterUsers(users []user.User, filter *user.QueryFilter) []user.User {
	search := strings.ToLower(filter.Search)
	filtered := make([]user.User, 0, len(users))

	for _, u := range users {
		// users with search keyword matching any Name, Username or Email ?
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		// users with any of the specified roles
		if len(filter.Roles) > 0 {
			var hasRole bool
			for _, r := range filter.Roles {
				if u.RoleStartsWith(r) {
					hasRole = true
					break
				}
			}
			if !hasRole {
				continue
			}
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && u.CreatedAt.Before(filter.CreatedFrom.UTC()) {
			continue
		}
		if !filter.CreatedTo.IsZero() && u.CreatedAt.After(filter.CreatedTo.UTC()) {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered
}

func lessUser(a, b user.User, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "name":
			cmp = strings.Compare(a.Name, b.Name)
		case "username":
			cmp = strings.Compare(a.Username, b.Username)
		case "email":
			cmp = strings.Compare(a.Email, b.Email)
		case "created_at":
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				cmp = -1
			case a.CreatedAt.After(b.CreatedAt):
				cmp = 1
			}
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return false
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.query() {
		switch {
		case filter.Username != "":
			if usr.Username == filter.Username {
				return usr, nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return usr, nil
			}
		case filter.UsernameOrEmail != "":
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
