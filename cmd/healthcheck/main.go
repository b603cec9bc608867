// main.go
//
// A manuscript management backend for the Aris platform
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of aris-backend.
// aris-backend is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// aris-backend is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with aris-backend.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/localnerve/aris-backend/internal/config"
	"github.com/localnerve/aris-backend/internal/database"
	"github.com/localnerve/aris-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		config.DefaultLogger().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := cfg.NewLogger("healthcheck")

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	var renderer services.Renderer
	if r := services.NewHTTPRenderer(cfg.RenderURL, cfg.RenderTimeout); r != nil {
		renderer = r
	}

	// Perform health check
	result := services.HealthCheck(cfg, db, renderer, log)

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Error("failed to marshal health check result", "error", err)
		os.Exit(1)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		database.Close(db)
		os.Exit(1)
	}
}
