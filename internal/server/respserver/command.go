package respserver

import (
	"sort"
)

// handle executes one command. It returns false when the connection
// should be closed.
func (s *Server) handle(c *conn, args [][]byte) bool {
	name := commandName(args[0])
	rest := args[1:]

	var err error
	switch name {
	case "PING":
		err = s.cmdPing(c, rest)
	case "SUBSCRIBE":
		err = s.cmdSubscribe(c, rest)
	case "UNSUBSCRIBE":
		err = s.cmdUnsubscribe(c, rest)
	case "QUIT":
		_ = c.write(s.cfg.WriteTimeout, func(w *Writer) error { return w.SimpleString("OK") })
		return false
	default:
		err = c.write(s.cfg.WriteTimeout, func(w *Writer) error {
			return w.Error("ERR unknown command '" + name + "'")
		})
	}
	return err == nil
}

func (s *Server) cmdPing(c *conn, args [][]byte) error {
	if len(args) > 1 {
		return c.write(s.cfg.WriteTimeout, func(w *Writer) error {
			return w.Error("ERR wrong number of arguments for 'ping' command")
		})
	}

	return c.write(s.cfg.WriteTimeout, func(w *Writer) error {
		if len(c.subs) > 0 {
			// Subscribed clients get the pub/sub form of the reply.
			if err := w.ArrayHeader(2); err != nil {
				return err
			}
			if err := w.BulkString("pong"); err != nil {
				return err
			}
			if len(args) == 1 {
				return w.Bulk(args[0])
			}
			return w.BulkString("")
		}
		if len(args) == 1 {
			return w.Bulk(args[0])
		}
		return w.SimpleString("PONG")
	})
}

func (s *Server) cmdSubscribe(c *conn, args [][]byte) error {
	if len(args) == 0 {
		return c.write(s.cfg.WriteTimeout, func(w *Writer) error {
			return w.Error("ERR wrong number of arguments for 'subscribe' command")
		})
	}

	for _, a := range args {
		room := string(a)
		if _, ok := c.subs[room]; !ok {
			if s.cfg.MaxSubscriptions > 0 && len(c.subs) >= s.cfg.MaxSubscriptions {
				return c.write(s.cfg.WriteTimeout, func(w *Writer) error {
					return w.Error("ERR too many subscriptions")
				})
			}
			sub, err := s.hub.Subscribe(room)
			if err != nil {
				return c.write(s.cfg.WriteTimeout, func(w *Writer) error {
					return w.Error("ERR " + err.Error())
				})
			}
			c.subs[room] = sub
			c.fwd.Add(1)
			go s.forward(c, sub)
		}

		count := len(c.subs)
		if err := c.write(s.cfg.WriteTimeout, func(w *Writer) error {
			return w.SubscriptionReply("subscribe", room, count)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) cmdUnsubscribe(c *conn, args [][]byte) error {
	rooms := make([]string, 0, len(args))
	for _, a := range args {
		rooms = append(rooms, string(a))
	}
	if len(rooms) == 0 {
		for room := range c.subs {
			rooms = append(rooms, room)
		}
		sort.Strings(rooms)
	}

	if len(rooms) == 0 {
		return c.write(s.cfg.WriteTimeout, func(w *Writer) error {
			return w.SubscriptionReply("unsubscribe", "", 0)
		})
	}

	for _, room := range rooms {
		if sub, ok := c.subs[room]; ok {
			sub.Close()
			delete(c.subs, room)
		}
		count := len(c.subs)
		if err := c.write(s.cfg.WriteTimeout, func(w *Writer) error {
			return w.SubscriptionReply("unsubscribe", room, count)
		}); err != nil {
			return err
		}
	}
	return nil
}
