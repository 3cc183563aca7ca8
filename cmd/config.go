package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	AuthTimeout          time.Duration `env:"AUTH_TIMEOUT,default=5s"`
	AMQPURL              string        `env:"AMQP_URL,required=true"`
	RelayExchange        string        `env:"RELAY_EXCHANGE,default=chat-events"`
	RelayQueue           string        `env:"RELAY_QUEUE,required=true"`
	RelayMaxBackoff      time.Duration `env:"RELAY_MAX_BACKOFF,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
