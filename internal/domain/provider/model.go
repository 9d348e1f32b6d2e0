package provider

import (
	"fmt"
	"strings"
)

// RegisterRequest enrolls a hospital on the provider registry. Only admins
// may submit it.
type RegisterRequest struct {
	Principal   string `json:"principal"`
	DisplayName string `json:"display_name"`
	Address     string `json:"address"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Principal) == "" {
		return fmt.Errorf("principal is required")
	}
	if strings.TrimSpace(r.DisplayName) == "" {
		return fmt.Errorf("display_name is required")
	}
	if strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}

// BatchRequest resolves a set of provider ids to their registry entries,
// used by record views to show hospital details next to each record.
type BatchRequest struct {
	IDs []string `json:"ids"`
}
