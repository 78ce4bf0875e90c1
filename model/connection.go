package model

import "time"

const (
	KindMySQL     string = "mysql"
	KindOracle    string = "oracle"
	KindPostgres  string = "postgres"
	KindSQLServer string = "sqlserver"
)

// Connection describes a remote target database. Password always holds a
// vault token; it is decrypted only for the lifetime of one connection.
type Connection struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Slug        string    `json:"slug"`
	Kind        string    `json:"kind" validate:"required"`
	Host        string    `json:"host" validate:"required"`
	Port        int       `json:"port" validate:"gte=0,lte=65535"`
	Username    string    `json:"username"`
	Password    string    `json:"password,omitempty"`
	Database    string    `json:"database,omitempty"`
	ServiceName string    `json:"service_name,omitempty"`
	Sid         string    `json:"sid,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConnectionView is the listing shape of a connection, without credential.
type ConnectionView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Kind        string    `json:"kind"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Username    string    `json:"username"`
	Database    string    `json:"database,omitempty"`
	ServiceName string    `json:"service_name,omitempty"`
	Sid         string    `json:"sid,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c Connection) View() ConnectionView {
	return ConnectionView{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Kind:        c.Kind,
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.Username,
		Database:    c.Database,
		ServiceName: c.ServiceName,
		Sid:         c.Sid,
		CreatedAt:   c.CreatedAt,
	}
}
