package database

// Config holds configuration for the database connection.
type Config struct {
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name. For the sqlite driver this is the file path
	// (":memory:" for an in-memory database).
	Name string `mapstructure:"name" default:"marketdata"`
	// Driver is the database driver (mysql, sqlite).
	Driver string `mapstructure:"driver" default:"mysql"`
	// TimeoutSeconds is the connection and I/O timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// SequenceName is the name of the database-side ID sequence.
	SequenceName string `mapstructure:"sequence_name" default:"id_seq"`
	// SequenceIncrement is the range size reserved per sequence round trip.
	SequenceIncrement int64 `mapstructure:"sequence_increment" default:"1000"`
}
