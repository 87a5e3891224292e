package cli

import (
	"strings"
	"testing"
)

func TestMCPServeCmd_NotInitialized(t *testing.T) {
	useSeededBoard(t)
	Tasks = nil

	if _, err := runCmd(t, mcpServeCmd); err == nil || !strings.Contains(err.Error(), "board not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestMCPServeCmd_Registered(t *testing.T) {
	found := false
	for _, cmd := range mcpCmd.Commands() {
		if cmd.Name() == "serve" {
			found = true
		}
	}
	if !found {
		t.Error("serve not registered under mcp")
	}
}
