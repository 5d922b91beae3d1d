package catalog

import (
	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// SoftwareTemplate describes a product and the span of versions it may appear with.
type SoftwareTemplate struct {
	Name     string
	Category domain.SoftwareCategory
	Oldest   domain.SoftwareVersion
	Newest   domain.SoftwareVersion
	Ports    []int
}

func tmpl(name string, cat domain.SoftwareCategory, oldest, newest string, ports ...int) SoftwareTemplate {
	return SoftwareTemplate{
		Name:     name,
		Category: cat,
		Oldest:   domain.MustParseVersion(oldest),
		Newest:   domain.MustParseVersion(newest),
		Ports:    ports,
	}
}

// DefaultTemplates is the built-in software table.
func DefaultTemplates() []SoftwareTemplate {
	return []SoftwareTemplate{
		tmpl("Apache", domain.CategoryWebServer, "2.2.3", "2.4.54", 80, 443),
		tmpl("Nginx", domain.CategoryWebServer, "0.8.0", "1.22.0", 80, 443),
		tmpl("Tomcat", domain.CategoryWebServer, "6.0.0", "10.0.23", 8080, 8443),
		tmpl("MySQL", domain.CategoryDatabase, "5.1.0", "8.0.30", 3306),
		tmpl("PostgreSQL", domain.CategoryDatabase, "8.4.0", "14.5.0", 5432),
		tmpl("MongoDB", domain.CategoryDatabase, "2.0.0", "6.0.0", 27017),
		tmpl("WordPress", domain.CategoryCMS, "3.0.0", "6.0.2", 80, 443),
		tmpl("Drupal", domain.CategoryCMS, "6.0.0", "9.4.5", 80, 443),
		tmpl("IPTables", domain.CategoryFirewall, "1.3.0", "1.8.8"),
		tmpl("UFW", domain.CategoryFirewall, "0.20", "0.36"),
		tmpl("Samba", domain.CategoryFileServer, "3.0.0", "4.16.4", 139, 445),
		tmpl("NFS", domain.CategoryFileServer, "3.0", "4.2", 2049),
		tmpl("LibreOffice", domain.CategoryOffice, "3.0.0", "7.4.0"),
		tmpl("Firefox", domain.CategoryBrowser, "3.6.0", "105.0.0"),
		tmpl("Chromium", domain.CategoryBrowser, "10.0.0", "106.0.0"),
		tmpl("Python", domain.CategoryDevelopment, "2.6.0", "3.10.7"),
		tmpl("Git", domain.CategoryDevelopment, "1.7.0", "2.37.3"),
		tmpl("Bacula", domain.CategoryBackup, "5.0.0", "13.0.1", 9101, 9102, 9103),
		tmpl("Rsync", domain.CategoryBackup, "3.0.0", "3.2.6", 873),
		tmpl("Mosquitto", domain.CategoryIoT, "0.15.0", "2.0.15", 1883),
		tmpl("BusyBox", domain.CategoryIoT, "1.10.0", "1.35.0", 23),
		tmpl("BIND", domain.CategoryDNS, "9.4.0", "9.18.6", 53),
		tmpl("Dnsmasq", domain.CategoryDNS, "2.40", "2.86", 53),
		tmpl("ISC-DHCP", domain.CategoryDHCP, "3.0.0", "4.4.3", 67),
		tmpl("OpenVPN", domain.CategoryVPN, "2.0.0", "2.5.7", 1194),
		tmpl("StrongSwan", domain.CategoryVPN, "4.0.0", "5.9.7", 500, 4500),
		tmpl("WireGuard", domain.CategoryVPN, "0.0.20180420", "1.0.20210914", 51820),
	}
}

// CategoryChance is the probability a device carries software of a category.
type CategoryChance struct {
	Category    domain.SoftwareCategory
	Probability float64
}

// DeviceProfile lists category chances in the order they are rolled.
type DeviceProfile struct {
	Name       string
	Categories []CategoryChance
}

// DefaultDeviceProfiles maps device types to their software mix.
func DefaultDeviceProfiles() map[domain.DeviceType]DeviceProfile {
	return map[domain.DeviceType]DeviceProfile{
		domain.DeviceServer: {Name: "Web Server", Categories: []CategoryChance{
			{domain.CategoryWebServer, 0.95},
			{domain.CategoryDatabase, 0.6},
			{domain.CategoryCMS, 0.4},
			{domain.CategoryFirewall, 0.8},
		}},
		domain.DeviceDesktop: {Name: "Workstation", Categories: []CategoryChance{
			{domain.CategoryOffice, 0.8},
			{domain.CategoryBrowser, 0.9},
			{domain.CategoryFileServer, 0.3},
			{domain.CategoryDevelopment, 0.5},
		}},
		domain.DeviceStorage: {Name: "Storage Server", Categories: []CategoryChance{
			{domain.CategoryFileServer, 0.95},
			{domain.CategoryBackup, 0.8},
			{domain.CategoryDatabase, 0.4},
			{domain.CategoryFirewall, 0.7},
		}},
		domain.DeviceEmbedded: {Name: "Embedded Device", Categories: []CategoryChance{
			{domain.CategoryWebServer, 0.7},
			{domain.CategoryDatabase, 0.2},
			{domain.CategoryIoT, 0.9},
			{domain.CategoryFirewall, 0.5},
		}},
		domain.DeviceRouter: {Name: "Router", Categories: []CategoryChance{
			{domain.CategoryWebServer, 0.8},
			{domain.CategoryFirewall, 0.95},
			{domain.CategoryDNS, 0.7},
			{domain.CategoryDHCP, 0.8},
		}},
	}
}

// GenericProfile is used for device types without a profile.
var GenericProfile = DeviceProfile{Name: "Generic Server", Categories: []CategoryChance{
	{domain.CategoryWebServer, 0.8},
	{domain.CategoryDatabase, 0.5},
	{domain.CategoryFirewall, 0.6},
}}
