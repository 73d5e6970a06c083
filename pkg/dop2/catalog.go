package dop2

import (
	"context"
	"errors"
	"fmt"

	"github.com/smarthut/mielelocal/pkg/generation"
)

// ProgramCatalog assembles the program catalog for an appliance. The
// schema family is chosen from the generation detector's fallback order;
// a family whose catalog leaves are missing is skipped in favor of the
// next one. Partial failures on individual programs or options are
// tolerated, since firmware occasionally returns inconsistent entries.
func (c *Client) ProgramCatalog(ctx context.Context, deviceID string) (Catalog, error) {
	var lastErr error
	for _, family := range c.det.FallbackOrder(deviceID) {
		var (
			cat Catalog
			err error
		)
		switch family {
		case generation.Legacy:
			cat, err = c.legacyCatalog(ctx, deviceID)
		default:
			// Semi-professional appliances publish the current-family
			// catalog leaves alongside their unit 3 extensions.
			cat, err = c.currentCatalog(ctx, deviceID)
		}
		if err == nil {
			return cat, nil
		}
		if !errors.Is(err, ErrLeafNotFound) {
			return Catalog{}, err
		}
		c.log.Debugf("device %s: %s catalog leaves missing, trying next family", deviceID, family)
		lastErr = err
	}
	return Catalog{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, lastErr)
}

// currentCatalog reads the catalog from the current-family leaves: the
// program ID list (2/1584) plus one setting leaf (2/105) per program for
// its adjustable bounds.
func (c *Client) currentCatalog(ctx context.Context, deviceID string) (Catalog, error) {
	v, err := c.ReadDecoded(ctx, deviceID, LeafProgramList)
	if err != nil {
		return Catalog{}, err
	}
	ids, ok := v.(ProgramIDList)
	if !ok {
		return Catalog{}, fmt.Errorf("%w: program list leaf", ErrInvalidStructure)
	}

	cat := Catalog{Family: generation.Current.String()}
	for _, pid := range ids {
		program := Program{
			ID:   pid,
			Name: fmt.Sprintf("program_%d", pid),
		}

		// Option bounds live behind the setting leaf indexed by program.
		// Missing or malformed entries leave the program without options.
		ov, err := c.ReadDecoded(ctx, deviceID, LeafSettingValue.WithIndex(int(pid), 0))
		if err == nil {
			if sv, ok := ov.(SettingValue); ok {
				program.Options = append(program.Options, Option{
					ID:      sv.ID,
					Name:    fmt.Sprintf("option_%d", sv.ID),
					Default: sv.Default,
					Min:     sv.Min,
					Max:     sv.Max,
				})
			}
		} else {
			c.log.Debugf("device %s: no options for program %d: %v", deviceID, pid, err)
		}

		cat.Programs = append(cat.Programs, program)
	}
	return cat, nil
}

// legacyCatalog reads the catalog from the legacy leaves: program list
// (14/1570), per-program option lists (14/1571), and the string table
// (14/2570) for name resolution. When the string table is unavailable the
// raw name indexes are kept behind synthesized names.
func (c *Client) legacyCatalog(ctx context.Context, deviceID string) (Catalog, error) {
	v, err := c.ReadDecoded(ctx, deviceID, LeafLegacyProgramList)
	if err != nil {
		return Catalog{}, err
	}
	entries, ok := v.(ProgramEntryList)
	if !ok {
		return Catalog{}, fmt.Errorf("%w: legacy program list leaf", ErrInvalidStructure)
	}

	names := c.stringTable(ctx, deviceID)

	cat := Catalog{Family: generation.Legacy.String()}
	for _, entry := range entries {
		program := Program{
			ID:   entry.ID,
			Name: names.resolve(entry.NameID, fmt.Sprintf("program_%d", entry.ID)),
		}

		ov, err := c.ReadDecoded(ctx, deviceID, LeafLegacyOptionList.WithIndex(int(entry.ID), 0))
		if err != nil {
			// Skip and continue: one broken program must not fail the
			// whole catalog.
			c.log.Debugf("device %s: options for program %d: %v", deviceID, entry.ID, err)
			cat.Programs = append(cat.Programs, program)
			continue
		}
		options, ok := ov.(OptionEntryList)
		if !ok {
			cat.Programs = append(cat.Programs, program)
			continue
		}

		for _, o := range options {
			program.Options = append(program.Options, Option{
				ID:      o.ID,
				Name:    names.resolve(o.NameID, fmt.Sprintf("option_%d", o.ID)),
				Default: o.Default,
				Allowed: o.Allowed,
			})
		}
		cat.Programs = append(cat.Programs, program)
	}
	return cat, nil
}

// nameResolver resolves string-table indexes with a fallback for missing
// tables or entries.
type nameResolver struct {
	table StringTable
}

func (n nameResolver) resolve(nameID uint16, fallback string) string {
	if n.table != nil {
		if s, ok := n.table[nameID]; ok {
			return s
		}
	}
	return fallback
}

// stringTable fetches the legacy string table. The secondary fetch has its
// own failure path: an unavailable table degrades name resolution instead
// of failing the caller.
func (c *Client) stringTable(ctx context.Context, deviceID string) nameResolver {
	v, err := c.ReadDecoded(ctx, deviceID, LeafLegacyStringTable)
	if err != nil {
		c.log.Debugf("device %s: string table unavailable: %v", deviceID, err)
		return nameResolver{}
	}
	table, ok := v.(StringTable)
	if !ok {
		return nameResolver{}
	}
	return nameResolver{table: table}
}

// ConsumptionStats reads the lifetime counters. Each leaf is optional;
// appliances missing one simply leave the field nil.
func (c *Client) ConsumptionStats(ctx context.Context, deviceID string) ConsumptionStats {
	var stats ConsumptionStats

	if v, err := c.ReadDecoded(ctx, deviceID, LeafHoursOfOperation); err == nil {
		if h, ok := v.(HoursOfOperation); ok {
			hours := uint32(h)
			stats.Hours = &hours
		}
	}
	if v, err := c.ReadDecoded(ctx, deviceID, LeafCycleCounter); err == nil {
		if cc, ok := v.(CycleCounter); ok {
			cycles := uint32(cc)
			stats.Cycles = &cycles
		}
	}
	if v, err := c.ReadDecoded(ctx, deviceID, LeafProcessData); err == nil {
		if pd, ok := v.(ProcessData); ok {
			energy, water := pd.EnergyWh, pd.WaterL
			stats.EnergyWh = &energy
			stats.WaterL = &water
		}
	}
	return stats
}
