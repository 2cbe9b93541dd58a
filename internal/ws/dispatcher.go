package ws

import "log"

// Dispatcher fans typed events out to a user's live connections. Delivery is
// fire-and-forget: a recipient with no connections is a no-op, and a failed
// send evicts only the broken connection, never the siblings.
type Dispatcher struct {
	hub *Hub
}

func NewDispatcher(hub *Hub) *Dispatcher {
	return &Dispatcher{hub: hub}
}

// SendToUser delivers the event to every live connection of the user.
// Connections whose send fails are closed and removed from the hub; the
// registry self-heals on the next failed send for sockets that died without
// a clean close.
func (d *Dispatcher) SendToUser(userID int64, ev Event) {
	for _, c := range d.hub.clientsFor(userID) {
		if err := c.Send(ev); err != nil {
			log.Printf("ws: dropping connection %s for user %d: %v", c.ID, userID, err)
			_ = c.Close()
			d.hub.Remove(c)
		}
	}
}

// NotifyNewMessage pushes a new-message event to the recipient.
func (d *Dispatcher) NotifyNewMessage(recipientID int64, ev Event) {
	d.SendToUser(recipientID, ev)
}

// NotifyUnreadCount pushes the recipient's recomputed unread total.
func (d *Dispatcher) NotifyUnreadCount(recipientID int64, count int) {
	d.SendToUser(recipientID, UnreadCount(count))
}

// Welcome sends connection-established to a single freshly admitted
// connection; it is never broadcast.
func (d *Dispatcher) Welcome(c *Client) {
	if err := c.Send(ConnectionEstablished(c.UserID)); err != nil {
		log.Printf("ws: welcome to user %d failed: %v", c.UserID, err)
	}
}

// Pong answers a single connection's ping.
func (d *Dispatcher) Pong(c *Client) {
	if err := c.Send(Pong()); err != nil {
		log.Printf("ws: pong to user %d failed: %v", c.UserID, err)
	}
}
