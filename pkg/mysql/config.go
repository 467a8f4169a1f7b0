package mysql

import (
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

// ConnectionConfig stores connection configs.
type ConnectionConfig struct {
	Host            string `default:"127.0.0.1"`
	Port            int    `default:"3306"`
	Username        string `default:"root"`
	Password        string
	Database        string `default:"txdeadline"`
	ConnectionLimit int    `split_words:"true" default:"10"`
}

// Config provides configs for mysql.
type Config struct {
	Master ConnectionConfig
	Slave  *ConnectionConfig `ignored:"true"`
	// QueryTimeout is the default statement timeout in seconds, 0 for none.
	QueryTimeout int `split_words:"true"`
	// Interceptors run after a statement is prepared on a transaction.
	// When empty, TimeoutReflector is installed.
	Interceptors []Interceptor `ignored:"true"`
}

// DSN renders the connection string understood by the mysql driver.
func (c ConnectionConfig) DSN() string {
	cfg := gomysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}
