package client

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainerhq/dexd/internal/wire"
)

// ============================================================================
// Test Fixtures
// ============================================================================

// stubServer accepts connections and answers each received line from the
// responses map, closing the connection after an "exit" line.
func stubServer(t *testing.T, responses map[string]string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				reader := wire.NewLineReader(conn)
				for {
					line, err := reader.ReadLine()
					if err != nil {
						return
					}
					body, ok := responses[line]
					if !ok {
						body = "Invalid command.\n"
					}
					if _, err := wire.WriteResponse(conn, body); err != nil {
						return
					}
					if line == "exit" {
						return
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String()
}

// ============================================================================
// Round Trip Tests
// ============================================================================

func TestDo(t *testing.T) {
	addr := stubServer(t, map[string]string{
		"get trainer": "All Trainers:\n  #1 Ash (2 Pokémon)\n  #2 Misty (1 Pokémon)\n",
		"exit":        "Goodbye from server.\n",
	})

	t.Run("SingleLineResponse", func(t *testing.T) {
		c, err := Dial(addr)
		require.NoError(t, err)
		defer c.Close()

		resp, err := c.Do("exit")
		require.NoError(t, err)
		assert.Equal(t, "Goodbye from server.", resp)
	})

	t.Run("MultiLineResponseKeepsInteriorNewlines", func(t *testing.T) {
		c, err := Dial(addr)
		require.NoError(t, err)
		defer c.Close()

		resp, err := c.Do("get trainer")
		require.NoError(t, err)
		assert.Equal(t, "All Trainers:\n  #1 Ash (2 Pokémon)\n  #2 Misty (1 Pokémon)", resp)
	})

	t.Run("UnknownCommandStillAnswered", func(t *testing.T) {
		c, err := Dial(addr)
		require.NoError(t, err)
		defer c.Close()

		resp, err := c.Do("bogus")
		require.NoError(t, err)
		assert.Equal(t, "Invalid command.", resp)
	})

	t.Run("SequentialCommandsShareOneConnection", func(t *testing.T) {
		c, err := Dial(addr)
		require.NoError(t, err)
		defer c.Close()

		for i := 0; i < 3; i++ {
			resp, err := c.Do("get trainer")
			require.NoError(t, err)
			assert.Contains(t, resp, "All Trainers:")
		}
	})
}

// ============================================================================
// Failure Tests
// ============================================================================

func TestDoAfterServerClose(t *testing.T) {
	addr := stubServer(t, map[string]string{
		"exit": "Goodbye from server.\n",
	})

	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Do("exit")
	require.NoError(t, err)

	_, err = c.Do("get trainer")
	assert.Error(t, err)
}

func TestResponseCutShort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		reader := wire.NewLineReader(conn)
		_, _ = reader.ReadLine()
		// Body line but no sentinel before hanging up.
		_ = wire.WriteFull(conn, []byte("partial answer\n"))
		_ = conn.Close()
	}()

	c, err := Dial(ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Do("get trainer")
	assert.ErrorContains(t, err, "cut short")
}
