package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeadLetterSuffix names the queue that receives messages a worker gave up
// on: "<queue>.dead".
const DeadLetterSuffix = ".dead"

// Declare creates name and its dead-letter queue.  Publisher and consumer
// both call it so the queue arguments always agree; RabbitMQ refuses a
// redeclaration with different arguments.
func Declare(ch *amqp.Channel, name string) error {
	dead := name + DeadLetterSuffix
	if _, err := ch.QueueDeclare(dead, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", dead, err)
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dead,
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, args); err != nil {
		return fmt.Errorf("queue declare %s: %w", name, err)
	}
	return nil
}
