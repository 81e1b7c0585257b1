package common

// Reference speeds in m/s, used to seed default thresholds.

const SpeedOfRunningMin = 2.23 // or 8 km/h or 5 mph

const SpeedOfDrivingMin = 4.47         // or 16 km/h or 10 mph
const SpeedOfDrivingCityUSMean = 13.9  // or 50 km/h or 31 mph
const SpeedOfDrivingHighwayMin = 20.11 // or 72 km/h or 45 mph
