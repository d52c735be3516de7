// Package config provides the render configuration for stringbar.
//
// The package uses a Provider interface to abstract configuration loading, with the
// primary implementation being filesystem-based configuration via a YAML file.
//
// # Configuration Structure
//
// Configuration is structured as follows:
//
//	separator: " | "              # text between sections
//	update_interval_ms: 1000      # render cadence
//	decimal_data_units: false     # KB/MB (true) or KiB/MiB (false)
//	sections:
//	  - module:
//	      type: memory_usage
//	    decoration:
//	      before: "dram "
//	  - module:
//	      type: timestamp
//	      template: "%d/%m/%Y %H:%M"
//
// Each module has a type tag and, for some types, a payload:
//
//	timestamp         template (strftime)
//	memory_usage
//	swap_usage
//	cpu_usage
//	process_count
//	disk_usage        name
//	disk_usage_total  include_removables
//
// # Basic Usage
//
//	path, err := config.DefaultPath()
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg, err := config.NewWithPath(filesys.OS(), path).Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Default Configuration
//
// If no configuration file exists, Load creates one holding Default(),
// written with explanatory comments. The file is created exclusively, so a
// file written concurrently by someone else is read rather than replaced.
//
// # Modules
//
// Module is a closed set of variants. Code that needs per-variant behaviour
// implements Visitor; adding a variant adds a Visitor method, so every such
// site fails to compile until it handles the new variant.
//
// # Error Handling
//
// The package defines two sentinel errors:
//   - ErrInvalidConfig: the file could not be parsed or failed validation
//   - ErrNoConfig: the file does not exist (Load handles this by writing the default)
//
// Outcome maps any Load error onto the missing/parse/io taxonomy for logging.
//
// # Thread Safety
//
// A loaded Config is treated as immutable. Reloading produces a new Config
// rather than changing an existing one.
package config
