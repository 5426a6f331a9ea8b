// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tribbler

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultConfigPath is where the commands look for the cluster config when
// the -config flag is not given.
const DefaultConfigPath = "trib.config"

// Config describes a Tribbler cluster: the KV back ends and the keepers.
// It is shared, as a JSON file, between trib-back, trib-keeper, and
// trib-front so that all processes agree on the back-end list (and hence on
// the name-to-back-end sharding).
type Config struct {
	Backs   []string `json:"backs"`
	Keepers []string `json:"keepers"`
}

// LoadConfig reads and decodes a cluster config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Backs) == 0 {
		return nil, fmt.Errorf("config %s lists no back ends", path)
	}
	return &cfg, nil
}

// Save writes the config to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
