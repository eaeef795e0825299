package queue

import (
    "errors"
    "fmt"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consume connects to the broker and consumes the named queue, invoking
// handler for every delivery.  It runs a reconnect loop with exponential
// backoff and never returns under normal operation; processing errors are
// logged and the offending message is rejected without requeue so one bad
// payload cannot wedge the queue.  The hold topology is declared before
// consuming so dead-lettered deliveries route correctly regardless of
// which process started first.
func Consume(queueName string, handler func(body []byte) error) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(URL())
        if err != nil {
            log.Printf("%s-consumer: failed to dial broker: %v; retrying in %s", queueName, err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn, queueName, handler); err != nil {
            log.Printf("%s-consumer: consume loop ended: %v; reconnecting", queueName, err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection, queueName string, handler func(body []byte) error) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("%s-consumer: set QoS failed: %v", queueName, err)
    }

    if err := declareHoldTopology(ch); err != nil {
        return fmt.Errorf("declare hold topology: %w", err)
    }
    if err := declareDurable(ch, queueName); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handler(d.Body); err != nil {
            log.Printf("%s-consumer: handle message failed: %v", queueName, err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}
