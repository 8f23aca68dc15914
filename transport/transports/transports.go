// Package transports imports every built-in transport so that each registers
// itself with the default registry.
package transports

import (
	_ "github.com/drblury/tagflow/transport/aws"
	_ "github.com/drblury/tagflow/transport/channel"
	_ "github.com/drblury/tagflow/transport/http"
	_ "github.com/drblury/tagflow/transport/kafka"
	_ "github.com/drblury/tagflow/transport/nats"
	_ "github.com/drblury/tagflow/transport/rabbitmq"
)
