package sqlstore

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mliu/whisper/internal/models"
)

func (s *SQLStore) CreateUser(user *models.User) error {
	query := s.rebind("INSERT INTO users (username, email, password) VALUES (?, ?, ?) RETURNING id")
	if err := s.db.QueryRow(query, user.Username, user.Email, user.Password).Scan(&user.ID); err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, email, password FROM users WHERE username = ?")
	err := s.db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.Email, &user.Password)
	if err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(id int) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, email, password FROM users WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.Email, &user.Password)
	if err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (s *SQLStore) SearchUsers(queryStr string) ([]models.User, error) {
	query := s.rebind("SELECT id, username, email FROM users WHERE username LIKE ? LIMIT 10")
	rows, err := s.db.Query(query, queryStr+"%")
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email); err != nil {
			return nil, mapErr(errors.Wrap(err, "sqlstore.SearchUsers.Scan"))
		}
		user.Email = maskEmail(user.Email)
		users = append(users, user)
	}
	return users, rows.Err()
}

// maskEmail hides most of the local part so search results don't expose
// full addresses.
func maskEmail(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	local, domain := parts[0], parts[1]
	visible := 1
	if len(local) > 2 {
		visible = len(local) / 2
		if visible > 3 {
			visible = 3
		}
	}
	return local[:visible] + strings.Repeat("*", len(local)-visible) + "@" + domain
}
