package control

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const defaultTimeout = 5 * time.Second

// Client sends one request per connection.
type Client struct {
	Endpoint string
	// Timeout bounds dialing. Exec waits for the command to finish.
	Timeout time.Duration
}

func NewClient(endpoint string) *Client {
	return &Client{Endpoint: endpoint, Timeout: defaultTimeout}
}

// Do sends req and decodes the reply. A reply with an error field is
// returned as an error together with the response.
func (c *Client) Do(req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	conn, err := dial(c.Endpoint, timeout)
	if err != nil {
		return Response{}, fmt.Errorf("cannot connect to hotconsole: %w", err)
	}
	defer conn.Close()
	if req.Op != OpExec {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, err
	}
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Response{}, err
		}
		return Response{}, errors.New("control: empty response")
	}
	var resp Response
	if err := json.Unmarshal(sc.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("control: decode response: %w", err)
	}
	if resp.Error != "" {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}
